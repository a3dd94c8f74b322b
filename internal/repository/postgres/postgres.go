package postgres

import "github.com/Masterminds/squirrel"

const (
	documentsTable = "documents"
	uploadsTable   = "uploaded_documents"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
