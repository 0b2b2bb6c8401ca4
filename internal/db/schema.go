package db

// Schema is the DDL for the jobmail database.
const Schema = `
CREATE TABLE IF NOT EXISTS applications (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    company         TEXT NOT NULL,
    role_title      TEXT NOT NULL,
    platform        TEXT,
    portal_link     TEXT,
    status          TEXT NOT NULL DEFAULT 'applied',
    first_seen_date TEXT NOT NULL,
    last_updated    TEXT NOT NULL,
    notes           TEXT
);

CREATE TABLE IF NOT EXISTS events (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    application_id    INTEGER NOT NULL,
    event_type        TEXT NOT NULL,
    event_time        TEXT NOT NULL,
    message_id        TEXT NOT NULL,
    subject           TEXT,
    from_addr         TEXT,
    confidence        REAL NOT NULL DEFAULT 0,
    extracted_json    TEXT,
    action_suggestion TEXT,
    follow_up_date    TEXT,
    created_at        TEXT NOT NULL,
    UNIQUE(message_id, application_id),
    FOREIGN KEY (application_id) REFERENCES applications(id)
);

CREATE TABLE IF NOT EXISTS emails_processed (
    message_id     TEXT PRIMARY KEY,
    thread_id      TEXT,
    received_at    TEXT NOT NULL,
    from_domain    TEXT,
    subject        TEXT,
    classification TEXT NOT NULL,
    processed_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS system_state (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_portal ON applications(portal_link);
CREATE INDEX IF NOT EXISTS idx_applications_company_role ON applications(LOWER(company), LOWER(role_title));
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);
CREATE INDEX IF NOT EXISTS idx_applications_updated ON applications(last_updated DESC);
CREATE INDEX IF NOT EXISTS idx_events_application ON events(application_id);
CREATE INDEX IF NOT EXISTS idx_events_time ON events(event_time DESC);
`

// dropSchema removes every table, used by Reset.
const dropSchema = `
DROP TABLE IF EXISTS events;
DROP TABLE IF EXISTS applications;
DROP TABLE IF EXISTS emails_processed;
DROP TABLE IF EXISTS system_state;
`
