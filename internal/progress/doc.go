// Package progress records the milestones of an ETL run in an append-only
// text log. Each line carries a timestamp and a fixed message so operators can
// see how far a run got without reading structured logs.
package progress
