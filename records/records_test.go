package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "negociacao", Normalize("  Negociação "))
	assert.Equal(t, "sao paulo", Normalize("SÃO PAULO"))
	assert.Equal(t, "pendente", Normalize("PENDENTE"))
}

func TestMatchesNormalized(t *testing.T) {
	assert.True(t, MatchesNormalized("Café Azul Ltda", "cafe"))
	assert.True(t, MatchesNormalized("pendente", "PENDENTE"))
	assert.False(t, MatchesNormalized("realizado", "pendente"))
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "10/04/2025", DisplayDate("2025-04-10"))
	// Unparsable input passes through so listings never hide raw data.
	assert.Equal(t, "amanhã", DisplayDate("amanhã"))
}

func TestStorageDateRoundTrip(t *testing.T) {
	day, err := ParseStorageDate("2025-04-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-10", FormatStorageDate(day))

	when := time.Date(2025, 4, 10, 14, 30, 0, 0, time.Local)
	parsed, err := ParseStorageDateTime(FormatStorageDateTime(when))
	require.NoError(t, err)
	assert.True(t, when.Equal(parsed))
}

func TestDisplayLineTemplates(t *testing.T) {
	followup := Record{Category: CategoryFollowups, Fields: Fields{
		"cliente": "Acme", "data_follow": "2025-04-10", "descricao": "ligar", "status": StatusPending,
	}}
	assert.Equal(t, "Acme — 10/04/2025 — ligar (pendente)", DisplayLine(followup))

	contract := Record{Category: CategoryContracts, Fields: Fields{
		"cliente": "Beta", "valor": 1500.5, "meses": 12.0, "data_inicio": "2025-04-01", "status": StatusPending,
	}}
	assert.Equal(t, "Beta — R$ 1500.50 — 12 meses — 01/04/2025 (pendente)", DisplayLine(contract))

	reminder := Record{Category: CategoryReminders, Fields: Fields{
		"texto": "ligar", "data_hora": "2025-04-10", "enviado": true,
	}}
	assert.Contains(t, DisplayLine(reminder), "(enviado)")
}

func TestNumberedListRespectsLimit(t *testing.T) {
	recs := []Record{
		{Category: CategoryVisits, Fields: Fields{"empresa": "A", "data_visita": "2025-04-01", "motivo": "x"}},
		{Category: CategoryVisits, Fields: Fields{"empresa": "B", "data_visita": "2025-04-02", "motivo": "y"}},
		{Category: CategoryVisits, Fields: Fields{"empresa": "C", "data_visita": "2025-04-03", "motivo": "z"}},
	}
	out := NumberedList(recs, 2)
	assert.Contains(t, out, "1. A")
	assert.Contains(t, out, "2. B")
	assert.NotContains(t, out, "3. C")
}

func TestFieldSpecs(t *testing.T) {
	assert.True(t, EditableField(CategoryContracts, "valor"))
	assert.False(t, EditableField(CategoryReminders, "data_hora"))
	assert.Equal(t, FieldDate, KindOf(CategoryFollowups, "data_follow"))
	assert.Equal(t, FieldMoney, KindOf(CategoryContracts, "valor"))
	assert.Equal(t, "data_follow", DateField(CategoryFollowups))
	assert.Equal(t, "", DateField(CategoryInteractions))
}

func TestFieldsScanValueRoundTrip(t *testing.T) {
	in := Fields{"cliente": "Acme", "valor": 1500.5, "enviado": false}
	raw, err := in.Value()
	require.NoError(t, err)

	var out Fields
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, "Acme", out.String("cliente"))
	assert.InDelta(t, 1500.5, out.Float("valor"), 0.001)
	assert.False(t, out.Bool("enviado"))
}

func TestMemStoreContract(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	id, err := s.Create(ctx, 10, CategoryFollowups, Fields{"cliente": "Acme", "status": StatusPending})
	require.NoError(t, err)

	rec, err := s.Get(ctx, 10, CategoryFollowups, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec.Fields.String("cliente"))

	// Partial update merges, does not replace.
	require.NoError(t, s.Update(ctx, 10, CategoryFollowups, id, Fields{"status": StatusDone}))
	rec, err = s.Get(ctx, 10, CategoryFollowups, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec.Fields.String("cliente"))
	assert.Equal(t, StatusDone, rec.Fields.String("status"))

	// Records are partitioned per chat.
	_, err = s.Get(ctx, 20, CategoryFollowups, id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, 10, CategoryFollowups, id))
	assert.ErrorIs(t, s.Delete(ctx, 10, CategoryFollowups, id), ErrNotFound)
}
