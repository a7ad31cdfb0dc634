// Package qdrant implements the vector side of the hybrid index as a
// REST client to a Qdrant collection.
package qdrant
