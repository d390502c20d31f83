// Package main hosts the banketl batch job.
//
// One invocation performs one run: the Colly fetcher downloads the archived
// "List of largest banks" page, goquery parses it, and the first ranking table
// is turned into records. Market capitalisation in USD billions is converted
// into the configured currencies from a Currency,Rate CSV, written to a CSV
// file, then loaded into Postgres by dropping and recreating the table inside
// one transaction. The configured read queries are printed to stdout.
//
// Operational notes:
//   - Progress: every phase boundary is appended to the progress log
//     (progress.path). A failed run ends with a "Process failed" line.
//   - Archive: set archive.provider to local, gcs or memory to keep the raw
//     HTML under <prefix>/<date>/<sha256>.html.
//   - Notification: when notify.topic is set the run summary is published to
//     Pub/Sub as JSON. Publish failures are logged and do not fail the run.
//   - Metrics: when metrics.textfile is set the run writes node-exporter
//     textfile metrics on exit, successful or not.
//   - Exit code is 0 on success and 1 on any configuration or run failure.
//     SIGINT/SIGTERM cancel the run.
//
// Quick checklist:
//   - Configure env vars: BANKETL_STORE_DSN, BANKETL_RATES_PATH,
//     BANKETL_OUTPUT_CSV_PATH, BANKETL_PROGRESS_PATH, BANKETL_ARCHIVE_PROVIDER,
//     BANKETL_NOTIFY_PROJECT_ID and BANKETL_NOTIFY_TOPIC.
//   - Run locally: go run ./cmd/banketl -config configs/config.yaml
package main
