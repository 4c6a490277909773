// Package domain holds the types shared across the legal RAG pipeline:
// documents and their chunks, structured case records, retrieval results
// and the error taxonomy.
package domain
