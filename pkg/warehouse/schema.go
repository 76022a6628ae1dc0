package warehouse

// Table names, schema-qualified.
const (
	StageGameData      = "stage.game_data"
	PreparedGameData   = "prepared.game_data"
	ErrorGameData      = "error.game_data"
	StagePlayerBlobs   = "stage.player_blobs"
	StagePlayerInfo    = "stage.player_info"
	PreparedPlayerInfo = "prepared.player_info"
	ErrorPlayerInfo    = "error.player_info"
)

// AllTables is every table either pipeline writes to, in truncation order.
var AllTables = []string{
	StageGameData,
	ErrorGameData,
	PreparedGameData,
	StagePlayerBlobs,
	StagePlayerInfo,
	ErrorPlayerInfo,
	PreparedPlayerInfo,
}

// ReportingViews are the views created under the reporting schema.
var ReportingViews = []string{
	"winning_initial_column",
	"nationality_participation",
	"single_game_player",
}

// schemaStatements create the warehouse from scratch. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS stage`,
	`CREATE SCHEMA IF NOT EXISTS prepared`,
	`CREATE SCHEMA IF NOT EXISTS error`,
	`CREATE SCHEMA IF NOT EXISTS reporting`,

	`CREATE TABLE IF NOT EXISTS stage.game_data (
    game_id TEXT,
    player_id TEXT,
    move_number TEXT,
    "column" TEXT,
    result TEXT,
    passed_data_quality_check BOOLEAN NOT NULL DEFAULT false,
    create_timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
)`,

	`CREATE TABLE IF NOT EXISTS prepared.game_data (
    game_id TEXT NOT NULL,
    player_id TEXT NOT NULL,
    move_number INTEGER NOT NULL,
    "column" INTEGER NOT NULL,
    result TEXT NOT NULL,
    create_timestamp TIMESTAMPTZ NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS error.game_data (
    game_id TEXT,
    player_id TEXT,
    move_number TEXT,
    "column" TEXT,
    result TEXT,
    create_timestamp TIMESTAMPTZ NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS stage.player_blobs (
    player_blob JSONB NOT NULL,
    create_timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
)`,

	`CREATE TABLE IF NOT EXISTS stage.player_info (
    player_id TEXT,
    details JSONB,
    create_timestamp TIMESTAMPTZ NOT NULL,
    passed_data_quality_check BOOLEAN NOT NULL DEFAULT false
)`,

	// player_id stays nullable: a record qualifies on its "data" key alone.
	`CREATE TABLE IF NOT EXISTS prepared.player_info (
    player_id TEXT,
    details JSONB NOT NULL,
    create_timestamp TIMESTAMPTZ NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS error.player_info (
    player_id TEXT,
    details JSONB,
    create_timestamp TIMESTAMPTZ NOT NULL
)`,

	// The column the winner opened with, across every game that has a winner.
	`CREATE OR REPLACE VIEW reporting.winning_initial_column AS
WITH winners AS (
    SELECT game_id, player_id
    FROM prepared.game_data
    WHERE result = 'win'
), first_moves AS (
    SELECT DISTINCT ON (g.game_id) g.game_id, g."column" AS initial_column
    FROM prepared.game_data g
    JOIN winners w ON w.game_id = g.game_id AND w.player_id = g.player_id
    ORDER BY g.game_id, g.move_number
)
SELECT initial_column
, COUNT(*) AS initial_column_game_count
, SUM(COUNT(*)) OVER () AS total_game_count
, ROUND(100.0 * COUNT(*) / SUM(COUNT(*)) OVER (), 2) AS percent_of_total
FROM first_moves
GROUP BY initial_column`,

	`CREATE OR REPLACE VIEW reporting.nationality_participation AS
SELECT p.details ->> 'nat' AS nationality
, COUNT(DISTINCT g.game_id) AS game_count
FROM prepared.game_data g
JOIN prepared.player_info p ON p.player_id = g.player_id
GROUP BY p.details ->> 'nat'`,

	`CREATE OR REPLACE VIEW reporting.single_game_player AS
WITH single AS (
    SELECT player_id, MIN(game_id) AS game_id
    FROM prepared.game_data
    GROUP BY player_id
    HAVING COUNT(DISTINCT game_id) = 1
), outcome AS (
    SELECT game_id
    , MAX(CASE WHEN result = 'win' THEN player_id END) AS winner
    , BOOL_OR(result = 'draw') AS drawn
    FROM prepared.game_data
    GROUP BY game_id
)
SELECT s.player_id
, s.game_id
, p.details ->> 'email' AS email_address
, p.details ->> 'nat' AS nationality
, CASE
    WHEN o.drawn THEN 'drew'
    WHEN o.winner = s.player_id THEN 'won'
    WHEN o.winner IS NOT NULL THEN 'lost'
    ELSE 'unfinished'
  END AS player_outcome
FROM single s
JOIN outcome o ON o.game_id = s.game_id
LEFT JOIN prepared.player_info p ON p.player_id = s.player_id`,
}
