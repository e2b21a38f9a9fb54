// Package ingest keeps the archive in sync with external data stores.
//
// A Source loads an archive fragment from somewhere outside the database: a
// dataset file on disk, or the document-link manifests a release site
// publishes. The Registry owns source lifecycle: it runs polling loops for
// sources configured with an interval, exposes manual sync triggers for the
// file watcher and operators, and hands every loaded fragment to a
// reconcile function supplied by the composition root, which merges it
// through the service layer so the usual validation and events apply.
package ingest
