package media

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"fieldtech_backend/platform/apperr"
	"fieldtech_backend/platform/logger"
)

type memStore struct {
	objects map[string][]byte
	puts    int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Put(ctx context.Context, key, contentType string, data []byte, capturedAt string) (string, error) {
	m.puts++
	m.objects[key] = data
	return "https://media.test/" + key, nil
}

func (m *memStore) Remove(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memStore) List(ctx context.Context, prefix string) ([]StoredObject, error) {
	var out []StoredObject
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, StoredObject{Key: key, URL: "https://media.test/" + key})
		}
	}
	return out, nil
}

func newTestService(store ObjectStore) *Service {
	return NewService(store, 1<<20, logger.New("development"))
}

func TestUploadAndList(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	att, err := svc.Upload(ctx, "req-1", "apt-1", PurposeInitial, "leak.jpg", "image/jpeg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if att.Purpose != PurposeInitial || att.RequestID != "req-1" || att.AppointmentID != "apt-1" {
		t.Errorf("attachment fields wrong: %+v", att)
	}

	listed, err := svc.ListByRequest(ctx, "req-1", "apt-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != att.ID {
		t.Errorf("expected the uploaded attachment back, got %+v", listed)
	}
}

func TestUploadEnforcesPurposeCap(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	for i := 0; i < MaxPerPurpose; i++ {
		name := fmt.Sprintf("photo-%d.jpg", i)
		if _, err := svc.Upload(ctx, "req-1", "apt-1", PurposeInitial, name, "image/jpeg", []byte("x")); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}

	_, err := svc.Upload(ctx, "req-1", "apt-1", PurposeInitial, "one-too-many.jpg", "image/jpeg", []byte("x"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation failure past the cap, got %v", err)
	}

	// The cap is per purpose: final photos are still allowed.
	if _, err := svc.Upload(ctx, "req-1", "apt-1", PurposeFinal, "after.jpg", "image/jpeg", []byte("x")); err != nil {
		t.Errorf("final purpose should have its own cap: %v", err)
	}
}

func TestIssueMediaIsReadOnly(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "req-1", "", PurposeIssue, "evidence.jpg", "image/jpeg", []byte("x")); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("uploading issue media should be forbidden, got %v", err)
	}

	store.objects["req-1/-/issue/evidence.jpg"] = []byte("x")
	if err := svc.Delete(ctx, "req-1", "req-1/-/issue/evidence.jpg"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("deleting issue media should be forbidden, got %v", err)
	}
}

func TestDeleteChecksOwnership(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	att, err := svc.Upload(ctx, "req-1", "apt-1", PurposeFinal, "after.jpg", "image/jpeg", []byte("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Delete(ctx, "req-2", att.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("cross-job delete should fail, got %v", err)
	}
	if err := svc.Delete(ctx, "req-1", att.ID); err != nil {
		t.Errorf("owner delete should succeed: %v", err)
	}
}

func TestUploadValidatesContentType(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.Upload(context.Background(), "req-1", "apt-1", PurposeInitial, "notes.pdf", "application/pdf", []byte("x"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation failure for pdf, got %v", err)
	}
}

func TestListFiltersByAppointment(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "req-1", "apt-1", PurposeInitial, "a.jpg", "image/jpeg", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Upload(ctx, "req-1", "apt-2", PurposeInitial, "b.jpg", "image/jpeg", []byte("x")); err != nil {
		t.Fatal(err)
	}
	// Issue media has no appointment segment and is visible to both.
	store.objects["req-1/-/issue/evidence.jpg"] = []byte("x")

	listed, err := svc.ListByRequest(ctx, "req-1", "apt-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected apt-1 photo plus issue photo, got %d: %+v", len(listed), listed)
	}
	for _, att := range listed {
		if att.AppointmentID == "apt-2" {
			t.Errorf("apt-2 media leaked into apt-1 listing")
		}
	}
}

func TestInFlightTracksActiveUploads(t *testing.T) {
	svc := newTestService(newMemStore())

	if got := svc.InFlight("req-1", PurposeInitial); got != 0 {
		t.Fatalf("expected no in-flight uploads, got %d", got)
	}

	svc.beginUpload("req-1", PurposeInitial)
	if got := svc.InFlight("req-1", PurposeInitial); got != 1 {
		t.Errorf("expected 1 in-flight upload, got %d", got)
	}
	if got := svc.InFlight("req-1", PurposeFinal); got != 0 {
		t.Errorf("purposes must be tracked independently, got %d", got)
	}

	svc.endUpload("req-1", PurposeInitial)
	if got := svc.InFlight("req-1", PurposeInitial); got != 0 {
		t.Errorf("expected settled uploads, got %d", got)
	}
}
