// Package postgres implements the store contracts on PostgreSQL: durable
// task snapshots for restart-surviving status queries and subscription-tier
// quota lookups. Driver errors are mapped to the store sentinels so callers
// never see pgx details.
package postgres
