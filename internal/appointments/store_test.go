package appointments

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func bookingFor(name, clock string) BookingRequest {
	return BookingRequest{
		PatientName: name,
		Date:        "2025-12-25",
		Time:        clock,
		Specialist:  "Cardiologist",
		Reason:      "Chest pain",
	}
}

func TestMemoryStoreRejectsDoubleBooking(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.Book(ctx, bookingFor("John Doe", "10:00:00"))
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if first.ID != 1 || first.Status != StatusScheduled {
		t.Fatalf("unexpected appointment %+v", first)
	}
	if _, err := store.Book(ctx, bookingFor("Jane Roe", "10:00:00")); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}

	other := bookingFor("Jane Roe", "10:00:00")
	other.Specialist = "Neurologist"
	if _, err := store.Book(ctx, other); err != nil {
		t.Fatalf("different specialist should book: %v", err)
	}
}

func TestMemoryStoreConcurrentBookingHasOneWinner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const attempts = 32
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Book(ctx, bookingFor("John Doe", "14:00:00")); err == nil {
				atomic.AddInt32(&wins, 1)
			} else if !errors.Is(err, ErrSlotUnavailable) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one booking, got %d", wins)
	}
}

func TestMemoryStoreCancelFreesSlot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	appt, err := store.Book(ctx, bookingFor("John Doe", "09:00:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := store.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := store.Cancel(ctx, appt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second cancel should be ErrNotFound, got %v", err)
	}
	if _, err := store.Cancel(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id should be ErrNotFound, got %v", err)
	}
	if _, err := store.Book(ctx, bookingFor("Jane Roe", "09:00:00")); err != nil {
		t.Fatalf("slot should be free after cancel: %v", err)
	}
}

func TestMemoryStoreListFiltersAndOrders(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	late := bookingFor("John Doe", "15:00:00")
	early := bookingFor("John Doe", "09:00:00")
	other := bookingFor("Jane Roe", "11:00:00")
	other.Specialist = "Dermatologist"
	for _, req := range []BookingRequest{late, early, other} {
		if _, err := store.Book(ctx, req); err != nil {
			t.Fatalf("book %+v: %v", req, err)
		}
	}

	all, _ := store.List(ctx, ListFilter{})
	if len(all) != 3 || all[0].Time != "09:00:00" || all[2].Time != "15:00:00" {
		t.Fatalf("unexpected order: %+v", all)
	}
	johns, _ := store.List(ctx, ListFilter{PatientName: "John Doe"})
	if len(johns) != 2 {
		t.Fatalf("expected 2 appointments for John Doe, got %d", len(johns))
	}
	if johns[0].PatientID != johns[1].PatientID {
		t.Fatalf("same patient should reuse patient id")
	}
	derm, _ := store.List(ctx, ListFilter{Specialist: "Dermatologist"})
	if len(derm) != 1 || derm[0].PatientName != "Jane Roe" {
		t.Fatalf("unexpected specialist filter result: %+v", derm)
	}

	if _, err := store.Cancel(ctx, derm[0].ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	cancelled, _ := store.List(ctx, ListFilter{Status: StatusCancelled})
	if len(cancelled) != 1 {
		t.Fatalf("expected one cancelled appointment, got %d", len(cancelled))
	}
	booked, _ := store.BookedTimes(ctx, "2025-12-25", "Cardiologist")
	if len(booked) != 2 {
		t.Fatalf("expected two booked times, got %v", booked)
	}
}
