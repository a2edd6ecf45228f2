// Package reader turns raw inputs (uploaded files and URLs) into documents.
//
// The Dispatcher routes file inputs by extension and URL inputs by probing
// the remote resource: YouTube links yield their caption transcript,
// text/plain responses are taken verbatim, links to known document types are
// downloaded and routed through the matching file extractor, and everything
// else goes through readability extraction of the page's main content.
//
// The ArtifactStore keeps the raw bytes of every ingested file, both as the
// duplicate-upload check and as the record that deletion removes alongside
// the indexed content.
package reader
