package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nt-language-lab-api/internal/repository"
	"github.com/nt-language-lab-api/internal/repository/sqlite"
	"github.com/nt-language-lab-api/pkg/schema/db"
)

const testModel = "paraphrase-multilingual-MiniLM-L12-v2"

const sampleJSON = `[
	{"libro": "Mateo", "capitulo": 1, "versiculo": 1, "griego": "Βίβλος γενέσεως Ἰησοῦ Χριστοῦ", "espanol": "Libro de la genealogía de Jesucristo"},
	{"libro": "Juan", "capitulo": 3, "versiculo": 16, "griego": "Οὕτως γὰρ ἠγάπησεν ὁ θεὸς τὸν κόσμον", "espanol": "Porque de tal manera amó Dios al mundo"},
	{"libro": "Romanos", "capitulo": 5, "versiculo": 8, "griego": "", "espanol": "  Mas Dios muestra su amor para con nosotros "}
]`

// lengthEmbedder derives a 3-dim vector from text lengths
type lengthEmbedder struct {
	dims  []int // per call, overrides the dimensionality
	calls int
	err   error
}

func (e *lengthEmbedder) EmbedVerses(_ context.Context, spanish, greek []string) ([][]float32, error) {
	defer func() { e.calls++ }()
	if e.err != nil {
		return nil, e.err
	}
	dims := 3
	if e.calls < len(e.dims) {
		dims = e.dims[e.calls]
	}
	out := make([][]float32, len(spanish))
	for i := range spanish {
		vec := make([]float32, dims)
		vec[0] = float32(len(spanish[i]))
		vec[1] = float32(len(greek[i]) + 1)
		out[i] = vec
	}
	return out, nil
}

type recordingWriter struct {
	batches [][]Verse
}

func (w *recordingWriter) Write(_ context.Context, verses []Verse, _ [][]float32) error {
	w.batches = append(w.batches, verses)
	return nil
}

func TestLoadVerses(t *testing.T) {
	raws, err := LoadVerses(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	require.Len(t, raws, 3)
	assert.Equal(t, RawVerse{
		Libro:     "Juan",
		Capitulo:  3,
		Versiculo: 16,
		Griego:    "Οὕτως γὰρ ἠγάπησεν ὁ θεὸς τὸν κόσμον",
		Espanol:   "Porque de tal manera amó Dios al mundo",
	}, raws[1])

	_, err = LoadVerses(strings.NewReader(`{"libro": "Juan"}`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	v, err := Validate(RawVerse{Libro: "galatas", Capitulo: 2, Versiculo: 20, Espanol: " Con Cristo estoy juntamente crucificado\n"})
	require.NoError(t, err)
	assert.Equal(t, Verse{
		ID:        "Gal.2.20",
		Book:      "Gálatas",
		BookOrder: 9,
		Chapter:   2,
		Verse:     20,
		Spanish:   "Con Cristo estoy juntamente crucificado",
	}, v)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  RawVerse
	}{
		{"unknown book", RawVerse{Libro: "Génesis", Capitulo: 1, Versiculo: 1, Espanol: "En el principio"}},
		{"zero chapter", RawVerse{Libro: "Juan", Capitulo: 0, Versiculo: 1, Espanol: "x"}},
		{"negative verse", RawVerse{Libro: "Juan", Capitulo: 1, Versiculo: -1, Espanol: "x"}},
		{"no spanish", RawVerse{Libro: "Juan", Capitulo: 1, Versiculo: 1, Griego: "Ἐν ἀρχῇ", Espanol: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidVerse)
		})
	}
}

func TestPrepare(t *testing.T) {
	raws, err := LoadVerses(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	raws = append(raws,
		RawVerse{Libro: "Jn", Capitulo: 3, Versiculo: 16, Espanol: "duplicado"},
		RawVerse{Libro: "Salmos", Capitulo: 23, Versiculo: 1, Espanol: "Jehová es mi pastor"},
	)

	verses, errs := Prepare(raws)
	require.Len(t, verses, 3)
	assert.Equal(t, "Porque de tal manera amó Dios al mundo", verses[1].Spanish)
	assert.Equal(t, "Mas Dios muestra su amor para con nosotros", verses[2].Spanish)

	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], ErrDuplicateVerse)
	assert.ErrorIs(t, errs[1], ErrInvalidVerse)
}

func TestRun_Batches(t *testing.T) {
	verses, _ := Prepare(mustLoad(t))
	w := &recordingWriter{}
	var progress []int

	n, err := Run(context.Background(), verses, &lengthEmbedder{}, w, 2, func(done, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, w.batches, 2)
	assert.Len(t, w.batches[0], 2)
	assert.Len(t, w.batches[1], 1)
	assert.Equal(t, []int{2, 3}, progress)
}

func TestRun_Failures(t *testing.T) {
	verses, _ := Prepare(mustLoad(t))

	n, err := Run(context.Background(), verses, &lengthEmbedder{err: errors.New("connection refused")}, &recordingWriter{}, 2, nil)
	assert.Error(t, err)
	assert.Equal(t, 0, n)

	n, err = Run(context.Background(), verses, &lengthEmbedder{dims: []int{3, 4}}, &recordingWriter{}, 2, nil)
	assert.ErrorIs(t, err, repository.ErrDimensionMismatch)
	assert.Equal(t, 2, n)
}

func TestRun_IntoSQLiteStore(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "verses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.EnsureSchema(ctx, conn, db.SQLiteSchema))

	verses, _ := Prepare(mustLoad(t))
	w := NewSQLiteWriter(conn, testModel)
	_, err = Run(ctx, verses, &lengthEmbedder{}, w, 2, nil)
	require.NoError(t, err)

	// re-ingesting upserts in place
	_, err = Run(ctx, verses, &lengthEmbedder{}, w, 2, nil)
	require.NoError(t, err)

	store, err := sqlite.NewVerseStore(ctx, conn, testModel, 3)
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	v, err := store.GetByID(ctx, "John.3.16")
	require.NoError(t, err)
	assert.Equal(t, "Juan", v.Book)
	assert.Equal(t, "Οὕτως γὰρ ἠγάπησεν ὁ θεὸς τὸν κόσμον", v.Greek)

	_, err = sqlite.NewVerseStore(ctx, conn, "another-model", 3)
	assert.ErrorIs(t, err, repository.ErrEmbeddingModelMismatch)
}

func TestPostgresWriter(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	w := NewPostgresWriter(sqlx.NewDb(mockDB, "sqlmock"), testModel)
	v := Verse{ID: "John.3.16", Book: "Juan", BookOrder: 4, Chapter: 3, Verse: 16, Greek: "Οὕτως", Spanish: "Porque"}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO nt_verses").
		WithArgs("John.3.16", "Juan", 4, 3, 16, "Οὕτως", "Porque", sqlmock.AnyArg(), testModel).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, w.Write(context.Background(), []Verse{v}, [][]float32{{1, 2, 3}}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriter_RollsBackOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	w := NewPostgresWriter(sqlx.NewDb(mockDB, "sqlmock"), testModel)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO nt_verses").WillReturnError(errors.New("expected 384 dimensions, not 3"))
	mock.ExpectRollback()

	err = w.Write(context.Background(), []Verse{{ID: "John.3.16"}}, [][]float32{{1, 2, 3}})
	assert.ErrorContains(t, err, "upsert John.3.16")
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Error(t, w.Write(context.Background(), []Verse{{ID: "John.3.16"}}, nil))
}

func TestStreamDatapoints(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("FROM nt_verses").WillReturnRows(
		sqlmock.NewRows([]string{"verse_id", "embedding"}).
			AddRow("Matt.1.1", "[0,0,1]").
			AddRow("John.3.16", "[1,0.5,0]"),
	)

	var got []Datapoint
	err = StreamDatapoints(context.Background(), sqlx.NewDb(mockDB, "sqlmock"), func(dp Datapoint) error {
		got = append(got, dp)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Datapoint{
		{ID: "Matt.1.1", Book: "Matt", Embedding: []float32{0, 0, 1}},
		{ID: "John.3.16", Book: "John", Embedding: []float32{1, 0.5, 0}},
	}, got)
}

func TestStreamDatapoints_RejectsForeignIDs(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("FROM nt_verses").WillReturnRows(
		sqlmock.NewRows([]string{"verse_id", "embedding"}).AddRow("Mateo_1_1_griego", "[0,0,1]"),
	)

	err = StreamDatapoints(context.Background(), sqlx.NewDb(mockDB, "sqlmock"), func(Datapoint) error { return nil })
	assert.Error(t, err)
}

func mustLoad(t *testing.T) []RawVerse {
	t.Helper()
	raws, err := LoadVerses(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	return raws
}
