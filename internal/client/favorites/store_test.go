package favorites

import (
	"context"
	"reflect"
	"testing"

	"miniregion/internal/client/cache"
	"miniregion/internal/client/localstore"
	"miniregion/internal/domain/restaurant"
	"miniregion/internal/logging"
)

func openKV(t *testing.T) *localstore.Store {
	t.Helper()
	kv, err := localstore.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestToggle(t *testing.T) {
	s := NewStore(openKV(t))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		on, err := s.Toggle(ctx, id)
		if err != nil || !on {
			t.Fatalf("Toggle(%s) = %v %v", id, on, err)
		}
	}

	on, err := s.Toggle(ctx, "b")
	if err != nil || on {
		t.Fatalf("second Toggle(b) = %v %v", on, err)
	}

	ids, _ := s.List(ctx)
	if !reflect.DeepEqual(ids, []string{"a", "c"}) {
		t.Errorf("List = %v", ids)
	}
	if fav, _ := s.IsFavorite(ctx, "b"); fav {
		t.Error("b should not be a favorite")
	}
	if fav, _ := s.IsFavorite(ctx, "c"); !fav {
		t.Error("c should be a favorite")
	}
}

func TestFavoritesSurviveCacheReplacement(t *testing.T) {
	kv := openKV(t)
	ctx := context.Background()
	s := NewStore(kv)
	layer := cache.NewLayer(kv, logging.Nop())

	layer.Write(ctx, []restaurant.Record{{ID: "p1"}})
	s.Toggle(ctx, "p1")
	layer.Write(ctx, []restaurant.Record{{ID: "other"}})

	if fav, err := s.IsFavorite(ctx, "p1"); err != nil || !fav {
		t.Errorf("favorite lost after cache write: %v %v", fav, err)
	}
}

func TestInterests(t *testing.T) {
	s := NewStore(openKV(t))
	ctx := context.Background()

	got, err := s.Interests(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("initial Interests = %v %v", got, err)
	}

	if err := s.SetInterests(ctx, []string{"Sushi", "Vegan", "Sushi", ""}); err != nil {
		t.Fatalf("SetInterests: %v", err)
	}
	got, _ = s.Interests(ctx)
	if !reflect.DeepEqual(got, []string{"Sushi", "Vegan"}) {
		t.Errorf("Interests = %v", got)
	}
}
