package counter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lwgren/loppis/internal/domain"
)

type fakeCounterClient struct {
	unseen    int
	unread    int
	unseenErr error
}

func (f *fakeCounterClient) GetUnseenActivityCount(context.Context) (int, error) {
	return f.unseen, f.unseenErr
}

func (f *fakeCounterClient) GetUnreadChatCount(context.Context) (int, error) {
	return f.unread, nil
}

func TestRefreshOverwritesLocalState(t *testing.T) {
	s := New(&fakeCounterClient{unseen: 4, unread: 2}, nil)
	s.DecrementUnseen(1) // stays 0, clamped

	require.NoError(t, s.Refresh(context.Background()))
	require.Equal(t, domain.Counts{UnseenActivities: 4, UnreadChats: 2}, s.Counts())
}

func TestRefreshFailureKeepsCounts(t *testing.T) {
	s := New(&fakeCounterClient{unseenErr: errors.New("offline")}, nil)
	s.SetFromServer(domain.Counts{UnseenActivities: 3, UnreadChats: 1})

	require.Error(t, s.Refresh(context.Background()))
	require.Equal(t, domain.Counts{UnseenActivities: 3, UnreadChats: 1}, s.Counts())
}

func TestDecrementClampsAtZero(t *testing.T) {
	s := New(&fakeCounterClient{}, nil)
	s.SetFromServer(domain.Counts{UnseenActivities: 2})

	s.DecrementUnseen(1)
	s.DecrementUnseen(5)
	require.Equal(t, 0, s.Counts().UnseenActivities)

	s.DecrementUnreadChats(1)
	require.Equal(t, 0, s.Counts().UnreadChats)
}

func TestResetThenAuthoritativeZeroIsIdempotent(t *testing.T) {
	client := &fakeCounterClient{unseen: 0, unread: 0}
	s := New(client, nil)
	s.SetFromServer(domain.Counts{UnseenActivities: 7})

	var updates []int
	s.Subscribe(func(c domain.Counts) {
		updates = append(updates, c.UnseenActivities)
	})

	s.ResetUnseen()
	require.NoError(t, s.Refresh(context.Background())) // server confirms 0

	require.Equal(t, 0, s.Counts().UnseenActivities)
	// Initial snapshot, the reset, and nothing for the no-op confirm.
	require.Equal(t, []int{7, 0}, updates)
}

func TestSubscribeReceivesCurrentThenChanges(t *testing.T) {
	s := New(&fakeCounterClient{}, nil)

	var got []domain.Counts
	unsub := s.Subscribe(func(c domain.Counts) { got = append(got, c) })

	s.SetFromServer(domain.Counts{UnseenActivities: 1})
	unsub()
	s.SetFromServer(domain.Counts{UnseenActivities: 9})

	require.Equal(t, []domain.Counts{
		{},
		{UnseenActivities: 1},
	}, got)
}
