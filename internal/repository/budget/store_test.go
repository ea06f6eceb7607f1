package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/db"
)

type expireCall struct {
	key string
	ttl time.Duration
	nx  bool
}

type fakeKV struct {
	values  map[string][]byte
	incrs   map[string]int64
	expires []expireCall
	incrErr error
	expErr  error
	getErr  error
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) IncrBy(_ context.Context, key string, val int64) error {
	if f.incrErr != nil {
		return f.incrErr
	}
	if f.incrs == nil {
		f.incrs = map[string]int64{}
	}
	f.incrs[key] += val
	return nil
}

func (f *fakeKV) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	f.expires = append(f.expires, expireCall{key, ttl, nx})
	return f.expErr
}

func TestIncrBy_SetsTTLByKeyKind(t *testing.T) {
	kv := &fakeKV{}
	s := New(kv, time.Hour, 24*time.Hour)
	ctx := context.Background()

	if err := s.IncrBy(ctx, "pdfchat:budget:llm:daily:2026-10-17", 5); err != nil {
		t.Fatal(err)
	}
	if err := s.IncrBy(ctx, "pdfchat:budget:llm:monthly:2026-10", 5); err != nil {
		t.Fatal(err)
	}

	want := []expireCall{
		{"pdfchat:budget:llm:daily:2026-10-17", time.Hour, true},
		{"pdfchat:budget:llm:monthly:2026-10", 24 * time.Hour, true},
	}
	if len(kv.expires) != len(want) {
		t.Fatalf("expires = %v", kv.expires)
	}
	for i := range want {
		if kv.expires[i] != want[i] {
			t.Errorf("expire[%d] = %+v, want %+v", i, kv.expires[i], want[i])
		}
	}
}

func TestIncrBy_Errors(t *testing.T) {
	s := New(&fakeKV{incrErr: errors.New("down")}, 0, 0)
	if err := s.IncrBy(context.Background(), "k:daily:x", 1); err == nil {
		t.Error("expected INCRBY error")
	}
	s = New(&fakeKV{expErr: errors.New("down")}, 0, 0)
	if err := s.IncrBy(context.Background(), "k:daily:x", 1); err == nil {
		t.Error("expected EXPIRE error")
	}
}

func TestNew_DefaultTTLs(t *testing.T) {
	s := New(&fakeKV{}, 0, 0)
	if s.dailyTTL != DefaultDailyTTL || s.monthTTL != DefaultMonthlyTTL {
		t.Errorf("ttls = %v/%v", s.dailyTTL, s.monthTTL)
	}
}

func TestGet(t *testing.T) {
	kv := &fakeKV{values: map[string][]byte{"a": []byte("42"), "bad": []byte("x")}}
	s := New(kv, 0, 0)
	ctx := context.Background()

	if v, err := s.Get(ctx, "a"); err != nil || v != 42 {
		t.Errorf("Get(a) = %d, %v", v, err)
	}
	if v, err := s.Get(ctx, "missing"); err != nil || v != 0 {
		t.Errorf("Get(missing) = %d, %v", v, err)
	}
	if _, err := s.Get(ctx, "bad"); err == nil {
		t.Error("expected parse error")
	}

	kv.getErr = errors.New("down")
	if _, err := s.Get(ctx, "a"); err == nil {
		t.Error("expected store error")
	}
}
