// Package database owns the portal's local SQLite file.
//
// The portal keeps no business data of its own; documents, users and requests
// live in the document service. What is stored locally is operational:
//
//	database/
//	├── database.go   # Connection setup and migrations
//	└── audit/        # Session audit trail (auth_events)
//
// The same connection pool backs the scs session store, so durable browser
// sessions and the audit trail share one file:
//
//	db, err := database.NewDatabase("./docsafe.db")
//	sqlDB, err := db.SQL()
//	sm, err := session.NewManager(sqlDB, cfg.Session)
//	events := audit.NewRepository(db.DB)
package database
