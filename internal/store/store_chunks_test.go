package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestInsertChunks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	insert := regexp.QuoteMeta(`
INSERT INTO kb_chunks (source, seq, content, has_image, image_id)
VALUES ($1,$2,$3,$4,$5)
`)
	mock.ExpectBegin()
	mock.ExpectExec(insert).
		WithArgs("medical_kb_flu", 0, "Influenza is a viral infection.", false, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insert).
		WithArgs("medical_kb_flu", 1, "Antiviral medications help.", true, "ab12cd34ef56ab12").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err = st.InsertChunks(context.Background(), []ChunkRecord{
		{Source: "medical_kb_flu", Seq: 0, Content: "Influenza is a viral infection."},
		{Source: "medical_kb_flu", Seq: 1, Content: "Antiviral medications help.", HasImage: true, ImageID: "ab12cd34ef56ab12"},
	})
	if err != nil {
		t.Fatalf("InsertChunks: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertChunksEmptySourceRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = st.InsertChunks(context.Background(), []ChunkRecord{{Source: " ", Seq: 0, Content: "x"}})
	if err == nil {
		t.Fatalf("expected error for empty source")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertChunksNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	if err := st.InsertChunks(context.Background(), nil); err != nil {
		t.Fatalf("InsertChunks(nil): %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListChunks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()

	query := regexp.QuoteMeta(`
SELECT id, source, seq, content, has_image, COALESCE(image_id,''), created_at
FROM kb_chunks
ORDER BY id ASC
`)
	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{
		"id", "source", "seq", "content", "has_image", "image_id", "created_at",
	}).
		AddRow(int64(1), "user", 0, "chest pain for two days", false, "", now).
		AddRow(int64(2), "user", 1, "worse when breathing in", true, "ab12cd34ef56ab12", now))

	recs, err := st.ListChunks(context.Background())
	if err != nil {
		t.Fatalf("ListChunks: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(recs))
	}
	if recs[0].Source != "user" || recs[0].Seq != 0 {
		t.Fatalf("unexpected first record: %#v", recs[0])
	}
	if !recs[1].HasImage || recs[1].ImageID != "ab12cd34ef56ab12" {
		t.Fatalf("unexpected second record: %#v", recs[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteChunksBySource(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kb_chunks WHERE source=$1`)).
		WithArgs("medical_kb_flu").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := st.DeleteChunksBySource(context.Background(), "medical_kb_flu")
	if err != nil {
		t.Fatalf("DeleteChunksBySource: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows deleted, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
