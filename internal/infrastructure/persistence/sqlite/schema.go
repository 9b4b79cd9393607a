package sqlite

import "github.com/praxisdesk/praxisdesk/pkg/database"

// Migrations is the full, embedded schema history of the practice database.
func Migrations() []database.Migration {
	return []database.Migration{
		{
			Version: 1,
			Name:    "parties",
			SQL: `
				CREATE TABLE users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					email TEXT NOT NULL UNIQUE,
					can_approve_all INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE TABLE clients (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					email TEXT NOT NULL,
					currency TEXT NOT NULL DEFAULT 'EUR',
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE TABLE leads (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					email TEXT NOT NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
		{
			Version: 2,
			Name:    "financial_documents",
			SQL: `
				CREATE TABLE financial_documents (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					kind TEXT NOT NULL CHECK (kind IN ('PROPOSAL', 'BILL')),
					number TEXT NOT NULL UNIQUE,
					client_id INTEGER REFERENCES clients(id),
					lead_id INTEGER REFERENCES leads(id),
					currency TEXT NOT NULL DEFAULT 'EUR',
					subtotal REAL NOT NULL DEFAULT 0,
					discount_percent REAL NOT NULL DEFAULT 0,
					discount_amount REAL NOT NULL DEFAULT 0,
					tax_rate REAL NOT NULL DEFAULT 0,
					tax_inclusive INTEGER NOT NULL DEFAULT 0,
					amount REAL NOT NULL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'DRAFT',
					internal_approval_required INTEGER NOT NULL DEFAULT 0,
					required_approver_ids TEXT NOT NULL DEFAULT '[]',
					internal_approval_type TEXT NOT NULL DEFAULT 'ALL'
						CHECK (internal_approval_type IN ('ALL', 'ANY', 'MAJORITY')),
					internal_approvals_complete INTEGER NOT NULL DEFAULT 0,
					approved_at DATETIME,
					client_decision TEXT NOT NULL DEFAULT 'PENDING'
						CHECK (client_decision IN ('PENDING', 'APPROVED', 'REJECTED')),
					client_decision_reason TEXT NOT NULL DEFAULT '',
					approval_token TEXT NOT NULL DEFAULT '',
					approval_token_expiry DATETIME,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CHECK ((client_id IS NULL) != (lead_id IS NULL))
				);

				CREATE INDEX idx_documents_client ON financial_documents(client_id);
				CREATE INDEX idx_documents_status ON financial_documents(status);
			`,
		},
		{
			Version: 3,
			Name:    "billable_sources",
			SQL: `
				CREATE TABLE timesheet_entries (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					client_id INTEGER NOT NULL REFERENCES clients(id),
					assignee_id INTEGER NOT NULL REFERENCES users(id),
					work_date DATETIME NOT NULL,
					hours REAL NOT NULL,
					rate REAL NOT NULL DEFAULT 0,
					notes TEXT NOT NULL DEFAULT '',
					billed INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX idx_timesheet_client_billed ON timesheet_entries(client_id, billed);

				CREATE TABLE charges (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					client_id INTEGER NOT NULL REFERENCES clients(id),
					description TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL,
					billed INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
		{
			Version: 4,
			Name:    "line_items",
			SQL: `
				CREATE TABLE line_items (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					document_id INTEGER NOT NULL REFERENCES financial_documents(id) ON DELETE CASCADE,
					kind TEXT NOT NULL CHECK (kind IN ('MANUAL', 'TIMESHEET', 'CHARGE')),
					description TEXT NOT NULL DEFAULT '',
					quantity REAL NOT NULL DEFAULT 0,
					rate REAL NOT NULL DEFAULT 0,
					discount REAL NOT NULL DEFAULT 0,
					amount REAL NOT NULL DEFAULT 0,
					credit INTEGER NOT NULL DEFAULT 0,
					source_timesheet_id INTEGER REFERENCES timesheet_entries(id),
					source_charge_id INTEGER REFERENCES charges(id),
					is_manually_edited INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX idx_line_items_document ON line_items(document_id);
				CREATE INDEX idx_line_items_timesheet ON line_items(source_timesheet_id);
			`,
		},
		{
			Version: 5,
			Name:    "approval_records",
			SQL: `
				CREATE TABLE approval_records (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					document_id INTEGER NOT NULL REFERENCES financial_documents(id) ON DELETE CASCADE,
					approver_id INTEGER NOT NULL REFERENCES users(id),
					decision TEXT NOT NULL CHECK (decision IN ('APPROVED', 'REJECTED')),
					comments TEXT NOT NULL DEFAULT '',
					decided_at DATETIME NOT NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (document_id, approver_id)
				);
			`,
		},
		{
			Version: 6,
			Name:    "document_sequences",
			SQL: `
				CREATE TABLE document_sequences (
					name TEXT PRIMARY KEY,
					value INTEGER NOT NULL DEFAULT 0
				);
			`,
		},
	}
}
