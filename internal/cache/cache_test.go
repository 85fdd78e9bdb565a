package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetAbsentKey(t *testing.T) {
	s := New(0, nil)

	rec, ok := s.Get(ProductKey("p1"))
	require.False(t, ok)
	require.Nil(t, rec.Payload)
}

func TestSetNotifiesBeforeReturning(t *testing.T) {
	s := New(0, nil)
	key := ProductKey("p1")

	var seen []string
	s.Subscribe(key, func(_ Key, rec Record) {
		// Read-back from inside the callback must observe the write.
		got, ok := s.Get(key)
		require.True(t, ok)
		seen = append(seen, got.Payload.(string))
		require.Equal(t, rec.Payload, got.Payload)
	})

	s.Set(key, "sofa", StatusFresh)
	require.Equal(t, []string{"sofa"}, seen)
}

func TestCollectionSubscriberSeesRecordWrites(t *testing.T) {
	s := New(0, nil)

	var keys []string
	s.Subscribe(NewKey(CollectionProducts), func(k Key, _ Record) {
		keys = append(keys, k.String())
	})

	s.Set(ProductKey("p1"), "a", StatusFresh)
	s.Set(ProductKey("p2"), "b", StatusFresh)
	s.Set(ProductListKey(), []string{"p1", "p2"}, StatusFresh)

	require.Equal(t, []string{"products:p1", "products:p2", "products"}, keys)
}

func TestInvalidateMarksStaleKeepsPayload(t *testing.T) {
	s := New(0, nil)
	s.Set(ProductKey("p1"), "a", StatusFresh)
	s.Set(ActivitiesKey(), "feed", StatusFresh)

	s.Invalidate("products")

	rec, ok := s.Get(ProductKey("p1"))
	require.True(t, ok)
	require.Equal(t, StatusStale, rec.Status)
	require.Equal(t, "a", rec.Payload)

	rec, _ = s.Get(ActivitiesKey())
	require.Equal(t, StatusFresh, rec.Status)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := New(0, nil)
	key := ProductKey("p1")

	calls := 0
	unsub := s.Subscribe(key, func(Key, Record) { calls++ })

	s.Set(key, "a", StatusFresh)
	unsub()
	s.Set(key, "b", StatusFresh)

	require.Equal(t, 1, calls)
}

func TestEvictionSkipsSubscribedRecords(t *testing.T) {
	s := New(2, nil)
	pinned := ProductKey("pinned")
	s.Subscribe(pinned, func(Key, Record) {})
	s.Set(pinned, "keep", StatusFresh)

	// Flood past capacity; only unsubscribed records may be evicted.
	for _, id := range []string{"a", "b", "c", "d"} {
		s.Set(ProductKey(id), id, StatusFresh)
	}

	rec, ok := s.Get(pinned)
	require.True(t, ok)
	require.Equal(t, "keep", rec.Payload)

	_, ok = s.Get(ProductKey("a"))
	require.False(t, ok)
}

func TestRemoveNotifiesWithZeroRecord(t *testing.T) {
	s := New(0, nil)
	key := ProductKey("p1")
	s.Set(key, "a", StatusFresh)

	var last Record
	s.Subscribe(key, func(_ Key, rec Record) { last = rec })
	s.Remove(key)

	require.Nil(t, last.Payload)
	_, ok := s.Get(key)
	require.False(t, ok)
}

func TestFingerprintIsStable(t *testing.T) {
	a := Fingerprint(map[string]string{"page": "1", "limit": "20"})
	b := Fingerprint(map[string]string{"limit": "20", "page": "1"})
	require.Equal(t, a, b)
	require.Equal(t, "limit=20&page=1", a)
}

func TestKeyString(t *testing.T) {
	k := NewKey(CollectionProducts).WithID("p9").WithParams(map[string]string{"page": "2"})
	require.Equal(t, "products:p9?page=2", k.String())
}
