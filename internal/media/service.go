package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"fieldtech_backend/platform/apperr"
	"fieldtech_backend/platform/logger"

	"github.com/google/uuid"
)

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Service owns media business rules: purpose caps, issue-media immutability
// and the in-flight upload registry the transition guard consults.
type Service struct {
	store       ObjectStore
	maxFileSize int64
	log         *logger.Logger

	mu       sync.Mutex
	inFlight map[string]int // requestID/purpose -> active uploads
}

// NewService creates the media service.
func NewService(store ObjectStore, maxFileSize int64, log *logger.Logger) *Service {
	return &Service{
		store:       store,
		maxFileSize: maxFileSize,
		log:         log,
		inFlight:    make(map[string]int),
	}
}

func flightKey(requestID string, purpose Purpose) string {
	return requestID + "/" + string(purpose)
}

// InFlight reports how many uploads for (requestID, purpose) have not yet
// settled. The transition guard uses this to distinguish "wait for the
// upload" from "data is missing".
func (s *Service) InFlight(requestID string, purpose Purpose) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[flightKey(requestID, purpose)]
}

func (s *Service) beginUpload(requestID string, purpose Purpose) {
	s.mu.Lock()
	s.inFlight[flightKey(requestID, purpose)]++
	s.mu.Unlock()
}

func (s *Service) endUpload(requestID string, purpose Purpose) {
	s.mu.Lock()
	key := flightKey(requestID, purpose)
	if s.inFlight[key] > 0 {
		s.inFlight[key]--
	}
	if s.inFlight[key] == 0 {
		delete(s.inFlight, key)
	}
	s.mu.Unlock()
}

// Upload stores a capture photo for a job. Issue-purpose media is
// customer-owned and rejected here.
func (s *Service) Upload(ctx context.Context, requestID, appointmentID string, purpose Purpose, fileName, contentType string, data []byte) (Attachment, error) {
	if s.store == nil {
		return Attachment{}, apperr.Unavailable("media storage is not configured")
	}
	if requestID == "" {
		return Attachment{}, apperr.BadRequest("requestId is required")
	}
	if !purpose.Valid() {
		return Attachment{}, apperr.Validation("unknown media purpose")
	}
	if purpose == PurposeIssue {
		return Attachment{}, apperr.Forbidden("issue media is customer-supplied and read-only")
	}
	if !allowedContentTypes[contentType] {
		return Attachment{}, apperr.Validation("unsupported content type " + contentType)
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return Attachment{}, apperr.Validation("file exceeds maximum size")
	}

	existing, err := s.ListByRequest(ctx, requestID, appointmentID)
	if err != nil {
		return Attachment{}, err
	}
	count := 0
	for _, att := range existing {
		if att.Purpose == purpose {
			count++
		}
	}
	if count >= MaxPerPurpose {
		return Attachment{}, apperr.Validation(fmt.Sprintf("at most %d %s photos per job", MaxPerPurpose, purpose))
	}

	captured := captureTime(data)
	capturedMeta := ""
	if captured != nil {
		capturedMeta = captured.UTC().Format(time.RFC3339)
	}

	key := objectKey(requestID, appointmentID, purpose, fileName)

	s.beginUpload(requestID, purpose)
	defer s.endUpload(requestID, purpose)

	downloadURL, err := s.store.Put(ctx, key, contentType, data, capturedMeta)
	if err != nil {
		return Attachment{}, apperr.Wrap(apperr.KindInternal, "store media", err)
	}

	return Attachment{
		ID:            key,
		URL:           downloadURL,
		RequestID:     requestID,
		AppointmentID: appointmentID,
		Purpose:       purpose,
		FileName:      fileName,
		CapturedAt:    captured,
	}, nil
}

// Delete removes a previously uploaded capture photo. The attachment id is
// the object key, so ownership and purpose are validated from it.
func (s *Service) Delete(ctx context.Context, requestID, attachmentID string) error {
	if s.store == nil {
		return apperr.Unavailable("media storage is not configured")
	}
	parsed, ok := parseKey(attachmentID)
	if !ok || parsed.requestID != requestID {
		return apperr.NotFound("attachment does not belong to this job")
	}
	if parsed.purpose == PurposeIssue {
		return apperr.Forbidden("issue media is customer-supplied and read-only")
	}

	if err := s.store.Remove(ctx, attachmentID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "delete media", err)
	}
	return nil
}

// ListByRequest returns all attachments for a request, optionally filtered
// to one appointment. Issue media is included; it lives under the request
// with no appointment segment.
func (s *Service) ListByRequest(ctx context.Context, requestID, appointmentID string) ([]Attachment, error) {
	if s.store == nil {
		return nil, apperr.Unavailable("media storage is not configured")
	}
	objects, err := s.store.List(ctx, requestID+"/")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list media", err)
	}

	attachments := make([]Attachment, 0, len(objects))
	for _, obj := range objects {
		parsed, ok := parseKey(obj.Key)
		if !ok {
			continue
		}
		if appointmentID != "" && parsed.appointmentID != "" && parsed.appointmentID != appointmentID {
			continue
		}

		att := Attachment{
			ID:            obj.Key,
			URL:           obj.URL,
			RequestID:     parsed.requestID,
			AppointmentID: parsed.appointmentID,
			Purpose:       parsed.purpose,
			FileName:      parsed.fileName,
		}
		if obj.CapturedAt != "" {
			if ts, err := time.Parse(time.RFC3339, obj.CapturedAt); err == nil {
				att.CapturedAt = &ts
			}
		}
		attachments = append(attachments, att)
	}

	return attachments, nil
}

// Object keys: {requestID}/{appointmentID|-}/{purpose}/{uuid8}_{fileName}

type parsedKey struct {
	requestID     string
	appointmentID string
	purpose       Purpose
	fileName      string
}

func objectKey(requestID, appointmentID string, purpose Purpose, fileName string) string {
	apptSegment := appointmentID
	if apptSegment == "" {
		apptSegment = "-"
	}
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	unique := fmt.Sprintf("%s_%s%s", base, uuid.New().String()[:8], ext)
	return fmt.Sprintf("%s/%s/%s/%s", requestID, apptSegment, purpose, unique)
}

func parseKey(key string) (parsedKey, bool) {
	parts := strings.SplitN(key, "/", 4)
	if len(parts) != 4 {
		return parsedKey{}, false
	}
	purpose := Purpose(parts[2])
	if !purpose.Valid() {
		return parsedKey{}, false
	}
	appointmentID := parts[1]
	if appointmentID == "-" {
		appointmentID = ""
	}
	return parsedKey{
		requestID:     parts[0],
		appointmentID: appointmentID,
		purpose:       purpose,
		fileName:      parts[3],
	}, true
}
