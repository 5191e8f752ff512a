package schemasource

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/collineage/pkg/lineage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryInformationSchema_GroupsColumnsByTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"table_schema", "table_name", "column_name"}).
		AddRow("public", "orders", "id").
		AddRow("public", "orders", "total").
		AddRow("public", "customers", "id")
	mock.ExpectQuery("information_schema.columns").WithArgs("public").WillReturnRows(rows)

	got, err := queryInformationSchema(context.Background(), db,
		`SELECT table_schema, table_name, column_name FROM information_schema.columns WHERE table_schema = $1`,
		"public")
	require.NoError(t, err)
	// Each table is registered twice: once schema-qualified, once under its
	// bare name, so an unqualified `FROM orders` in a SQL file still resolves.
	require.Len(t, got, 4)

	orders := got[0]
	assert.Equal(t, "public", orders.Path.Schema)
	assert.Equal(t, "orders", orders.Path.Identifier)
	assert.Equal(t, []string{"id", "total"}, orders.FieldNames)

	ordersAlias := got[1]
	assert.Equal(t, "", ordersAlias.Path.Schema)
	assert.Equal(t, "orders", ordersAlias.Path.Identifier)
	assert.Equal(t, []string{"id", "total"}, ordersAlias.FieldNames)

	customers := got[2]
	assert.Equal(t, "public", customers.Path.Schema)
	assert.Equal(t, "customers", customers.Path.Identifier)
	assert.Equal(t, []string{"id"}, customers.FieldNames)

	customersAlias := got[3]
	assert.Equal(t, "", customersAlias.Path.Schema)
	assert.Equal(t, "customers", customersAlias.Path.Identifier)
	assert.Equal(t, []string{"id"}, customersAlias.FieldNames)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationsFromRows_PreservesFirstSeenOrder(t *testing.T) {
	got := relationsFromRows([]columnRow{
		{Schema: "s", Table: "b", Column: "x"},
		{Schema: "s", Table: "a", Column: "y"},
		{Schema: "s", Table: "b", Column: "z"},
	})
	require.Len(t, got, 4)
	assert.Equal(t, "s", got[0].Path.Schema)
	assert.Equal(t, "b", got[0].Path.Identifier)
	assert.Equal(t, []string{"x", "z"}, got[0].FieldNames)
	assert.Equal(t, "", got[1].Path.Schema)
	assert.Equal(t, "b", got[1].Path.Identifier)
	assert.Equal(t, "s", got[2].Path.Schema)
	assert.Equal(t, "a", got[2].Path.Identifier)
	assert.Equal(t, "", got[3].Path.Schema)
	assert.Equal(t, "a", got[3].Path.Identifier)

	rel := lineage.Relation{Path: got[0].Path, FieldNames: got[0].FieldNames}
	assert.True(t, rel.HasField("x"))
	assert.False(t, rel.HasField("q"))

	unqualified := lineage.Relation{Path: got[1].Path, FieldNames: got[1].FieldNames}
	assert.True(t, unqualified.HasField("x"))
}
