package services

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmehta/taskhub-be/internal/auth"
	"github.com/kmehta/taskhub-be/internal/database"
)

// recordingMailer captures notifications sent by the user service. Sends
// happen on their own goroutine, so access is guarded.
type recordingMailer struct {
	mu            sync.Mutex
	welcomes      []string
	cancellations []string
}

func (m *recordingMailer) SendWelcome(name, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, email)
}

func (m *recordingMailer) SendCancellation(name, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancellations = append(m.cancellations, email)
}

func (m *recordingMailer) welcomeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.welcomes)
}

func (m *recordingMailer) cancellationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cancellations)
}

func newTestServices(t *testing.T) (*UserService, *TaskService, *recordingMailer) {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	// A pooled :memory: connection would give every conn its own database.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	mailer := &recordingMailer{}
	users := NewUserService(db, auth.NewTokenService("test-secret"), mailer)
	tasks := NewTaskService(db)
	return users, tasks, mailer
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Name:     "Priya Sharma",
		Email:    email,
		Password: "longhorse42",
		Age:      30,
	}
}

func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}
