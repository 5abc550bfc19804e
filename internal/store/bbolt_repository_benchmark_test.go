package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func BenchmarkBboltSessionSaveLoad(b *testing.B) {
	repo, err := NewBboltRepository(filepath.Join(b.TempDir(), "bench.db"), time.Hour)
	if err != nil {
		b.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		credential := fmt.Sprintf("token-%06d", i)
		if err := repo.Session().Save(ctx, credential); err != nil {
			b.Fatalf("Save: %v", err)
		}
		got, ok, err := repo.Session().Load(ctx)
		if err != nil || !ok || got != credential {
			b.Fatalf("Load: got=%q ok=%v err=%v", got, ok, err)
		}
	}
}

func BenchmarkFileSessionSaveLoad(b *testing.B) {
	s := NewFileSessionStore(filepath.Join(b.TempDir(), "session.json"), time.Hour)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		credential := fmt.Sprintf("token-%06d", i)
		if err := s.Save(ctx, credential); err != nil {
			b.Fatalf("Save: %v", err)
		}
		if _, ok, err := s.Load(ctx); err != nil || !ok {
			b.Fatalf("Load: ok=%v err=%v", ok, err)
		}
	}
}
