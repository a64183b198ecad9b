// Package metrics records counters for one assessment run and renders them
// in Prometheus text exposition format. WriteTextfile follows the
// node_exporter textfile-collector convention (atomic replace), so a batch
// run leaves its last-run stats behind for scraping.
package metrics
