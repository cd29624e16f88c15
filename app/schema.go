package app

// Schema contains the SQL statements to create the file index schema. Safe
// to execute on every run.
const Schema = `
CREATE TABLE IF NOT EXISTS files (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    path                TEXT UNIQUE NOT NULL,
    name                TEXT,
    dir                 TEXT,
    extension           TEXT,
    size                INTEGER,
    mtime_unix          REAL,
    ctime_unix          REAL,
    atime_unix          REAL,
    mtime_datetime      TEXT,
    ctime_datetime      TEXT,
    atime_datetime      TEXT,
    is_readonly         INTEGER,
    is_hidden           INTEGER,
    is_system           INTEGER,
    is_archive          INTEGER,
    attributes          TEXT,
    sha256              TEXT,
    md5                 TEXT,
    path_length         INTEGER,
    path_depth          INTEGER,
    owner               TEXT,
    file_version        TEXT,
    scanned_at_unix     REAL,
    scanned_at_datetime TEXT
);

CREATE INDEX IF NOT EXISTS idx_files_dir         ON files(dir);
CREATE INDEX IF NOT EXISTS idx_files_extension   ON files(extension);
CREATE INDEX IF NOT EXISTS idx_files_size        ON files(size);
CREATE INDEX IF NOT EXISTS idx_files_mtime       ON files(mtime_datetime);
CREATE INDEX IF NOT EXISTS idx_files_path_length ON files(path_length);
CREATE INDEX IF NOT EXISTS idx_files_scanned_at  ON files(scanned_at_datetime);
CREATE INDEX IF NOT EXISTS idx_files_sha256      ON files(sha256);

-- Run bookkeeping
CREATE TABLE IF NOT EXISTS metadata (
    key   TEXT PRIMARY KEY,
    value TEXT
);

CREATE TABLE IF NOT EXISTS scan_history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     TEXT NOT NULL,
    scan_time  INTEGER NOT NULL,
    stats_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_history_time ON scan_history(scan_time DESC);
`

const upsertSQL = `
INSERT INTO files(
    path, name, dir, extension, size,
    mtime_unix, ctime_unix, atime_unix,
    mtime_datetime, ctime_datetime, atime_datetime,
    is_readonly, is_hidden, is_system, is_archive, attributes,
    sha256, md5, path_length, path_depth,
    owner, file_version, scanned_at_unix, scanned_at_datetime
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(path) DO UPDATE SET
    name=excluded.name,
    dir=excluded.dir,
    extension=excluded.extension,
    size=excluded.size,
    mtime_unix=excluded.mtime_unix,
    ctime_unix=excluded.ctime_unix,
    atime_unix=excluded.atime_unix,
    mtime_datetime=excluded.mtime_datetime,
    ctime_datetime=excluded.ctime_datetime,
    atime_datetime=excluded.atime_datetime,
    is_readonly=excluded.is_readonly,
    is_hidden=excluded.is_hidden,
    is_system=excluded.is_system,
    is_archive=excluded.is_archive,
    attributes=excluded.attributes,
    sha256=excluded.sha256,
    md5=excluded.md5,
    path_length=excluded.path_length,
    path_depth=excluded.path_depth,
    owner=excluded.owner,
    file_version=excluded.file_version,
    scanned_at_unix=excluded.scanned_at_unix,
    scanned_at_datetime=excluded.scanned_at_datetime;
`
