// Package dom exposes the small set of document-tree operations the match
// extractor relies on.
//
// Node is implemented twice: once over goquery selections for real HTML
// pages, and once over an in-memory element tree (Fixture) so extraction
// strategies can be exercised without parsing markup or touching the network.
package dom
