// Package crawler defines the domain types and collaborator interfaces shared
// by the firm crawl pipeline: targets, candidate links, crawl units, extracted
// records, and the ports the orchestrator drives.
package crawler
