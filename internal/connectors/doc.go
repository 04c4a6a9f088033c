// Package connectors holds the source accessor implementations, one per
// knowledge source. Each accessor knows how to list, fetch and search
// documents in its upstream service and normalises everything it returns
// to domain documents, so the retrieval pipeline never sees wire types.
package connectors
