package services

import (
	"strings"
	"sync"
	"testing"

	"github.com/attachtrack/attachtrack/internal/app/repositories/memstore"
	"github.com/attachtrack/attachtrack/internal/pkg/email"
	"github.com/rs/zerolog"
)

// plainHasher keeps tests fast by skipping bcrypt
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (plainHasher) Compare(hashed, plain string) bool {
	return hashed != "" && hashed == "hashed:"+plain
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []email.CredentialNotice
}

func (n *recordingNotifier) SendCredentialNotice(notice email.CredentialNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return nil
}

func (n *recordingNotifier) sent() []email.CredentialNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]email.CredentialNotice(nil), n.notices...)
}

type fixture struct {
	store       *memstore.Store
	notifier    *recordingNotifier
	ingest      *RosterIngestService
	students    *StudentService
	supervisors *SupervisorService
	attachments *AttachmentService
	logbook     *LogbookService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	notifier := &recordingNotifier{}
	log := zerolog.Nop()
	return &fixture{
		store:       store,
		notifier:    notifier,
		ingest:      NewRosterIngestService(store, plainHasher{}, notifier, 200, log),
		students:    NewStudentService(store, log),
		supervisors: NewSupervisorService(store, log),
		attachments: NewAttachmentService(store, log),
		logbook:     NewLogbookService(store, log),
	}
}

func studentRecord(regNo, phone string) RosterRecord {
	return RosterRecord{
		Key:       regNo,
		Firstname: "Jane",
		Lastname:  "Wanjiru",
		Phone:     phone,
		Email:     strings.ToLower(strings.ReplaceAll(regNo, "/", "")) + "@students.example.ac.ke",
	}
}

func supervisorRecord(staffNo, phone string) RosterRecord {
	return RosterRecord{
		Key:       staffNo,
		Firstname: "Peter",
		Lastname:  "Otieno",
		Phone:     phone,
		Email:     strings.ToLower(staffNo) + "@example.ac.ke",
	}
}
