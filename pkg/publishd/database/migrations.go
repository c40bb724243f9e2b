package database

var migrations = []string{
	`
BEGIN;

CREATE TABLE migrations
(
    version integer PRIMARY KEY NOT NULL,
    created timestamp with time zone NOT NULL
);

CREATE TABLE users
(
    id      varchar PRIMARY KEY NOT NULL,
    email   varchar             NOT NULL,
    name    varchar             NOT NULL,
    created timestamp with time zone NOT NULL
);

CREATE TABLE deployment
(
    id            uuid PRIMARY KEY NOT NULL,
    owner_id      varchar          NOT NULL REFERENCES users (id),
    project_name  varchar          NOT NULL,
    platform      varchar          NOT NULL,
    source_type   varchar          NOT NULL,
    source_url    varchar          NOT NULL,
    status        varchar          NOT NULL,
    preview_url   varchar          NULL,
    error_message varchar          NULL,
    created_at    timestamp with time zone NOT NULL,
    updated_at    timestamp with time zone NOT NULL,

    CONSTRAINT deployment_platform CHECK (platform IN ('vercel', 'netlify')),
    CONSTRAINT deployment_source_type CHECK (source_type IN ('upload', 'repository')),
    CONSTRAINT deployment_status CHECK (status IN ('pending', 'in_progress', 'success', 'failed')),
    CONSTRAINT deployment_preview_url CHECK ((status = 'success') = (preview_url IS NOT NULL)),
    CONSTRAINT deployment_error_message CHECK ((status = 'failed') = (error_message IS NOT NULL))
);

CREATE INDEX deployment_owner_created ON deployment (owner_id, created_at DESC);
CREATE INDEX deployment_status_created ON deployment (status, created_at);

INSERT INTO migrations (version, created)
VALUES (1, now());

COMMIT;
`,
}
