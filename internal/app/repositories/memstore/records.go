package memstore

import (
	"context"
	"sort"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
)

type attachmentRepo struct{ s *Store }

func (r *attachmentRepo) ListByStatus(ctx context.Context, status models.AttachmentStatus) ([]*models.AttachmentListing, error) {
	out := []*models.AttachmentListing{}
	err := r.s.view(func(st *memoryState) error {
		for _, id := range sortedIDs(st.attachments) {
			a := st.attachments[id]
			if a.Status != status {
				continue
			}
			student, ok := st.students[a.Student]
			if !ok {
				continue
			}
			listing := &models.AttachmentListing{
				Attachment:     a,
				StudentName:    student.FullName(),
				RegistrationNo: student.RegistrationNo,
			}
			if a.Supervisor != nil {
				if sv, ok := st.supervisors[*a.Supervisor]; ok {
					name := sv.FullName()
					listing.SupervisorName = &name
				}
			}
			out = append(out, listing)
		}
		return nil
	})
	return out, err
}

func (r *attachmentRepo) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	var out *models.Attachment
	err := r.s.view(func(st *memoryState) error {
		v, ok := st.attachments[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &v
		return nil
	})
	return out, err
}

func (r *attachmentRepo) HasOpen(ctx context.Context, studentID int64) (bool, error) {
	found := false
	err := r.s.view(func(st *memoryState) error {
		for _, a := range st.attachments {
			if a.Student == studentID && a.Status.IsOpen() {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func checkAttachmentRefs(st *memoryState, a *models.Attachment) error {
	if _, ok := st.students[a.Student]; !ok {
		return restricted("attachments_student_fkey")
	}
	if a.Supervisor != nil {
		if _, ok := st.supervisors[*a.Supervisor]; !ok {
			return restricted("attachments_supervisor_fkey")
		}
	}
	return nil
}

func (r *attachmentRepo) Create(ctx context.Context, a *models.Attachment) error {
	return r.s.update(func(st *memoryState) error {
		if err := checkAttachmentRefs(st, a); err != nil {
			return err
		}
		a.ID = st.nextID("attachments")
		st.attachments[a.ID] = *a
		return nil
	})
}

func (r *attachmentRepo) Update(ctx context.Context, a *models.Attachment) error {
	return r.s.update(func(st *memoryState) error {
		current, ok := st.attachments[a.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		if err := checkAttachmentRefs(st, a); err != nil {
			return err
		}
		a.Student = current.Student
		a.DateCreated = current.DateCreated
		st.attachments[a.ID] = *a
		return nil
	})
}

func (r *attachmentRepo) Delete(ctx context.Context, ids []int64, statuses []models.AttachmentStatus) (int64, error) {
	var affected int64
	err := r.s.update(func(st *memoryState) error {
		allowed := make(map[models.AttachmentStatus]bool, len(statuses))
		for _, s := range statuses {
			allowed[s] = true
		}
		var doomed []int64
		for id := range idSet(ids) {
			if a, ok := st.attachments[id]; ok && allowed[a.Status] {
				doomed = append(doomed, id)
			}
		}
		targets := idSet(doomed)
		for _, e := range st.logbook {
			if _, ok := targets[e.Attachment]; ok {
				return restricted("logbook_attachment_fkey")
			}
		}
		for _, id := range doomed {
			delete(st.attachments, id)
		}
		affected = int64(len(doomed))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

type logbookRepo struct{ s *Store }

func (r *logbookRepo) ListByAttachment(ctx context.Context, attachmentID int64) ([]*models.LogbookEntry, error) {
	out := []*models.LogbookEntry{}
	err := r.s.view(func(st *memoryState) error {
		for _, id := range sortedIDs(st.logbook) {
			if e := st.logbook[id]; e.Attachment == attachmentID {
				out = append(out, &e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// ids are already ascending, so a stable sort gives log_date, id
	sort.SliceStable(out, func(i, j int) bool { return out[i].LogDate.Before(out[j].LogDate) })
	return out, nil
}

func (r *logbookRepo) GetByID(ctx context.Context, id int64) (*models.LogbookEntry, error) {
	var out *models.LogbookEntry
	err := r.s.view(func(st *memoryState) error {
		v, ok := st.logbook[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &v
		return nil
	})
	return out, err
}

func (r *logbookRepo) Create(ctx context.Context, entry *models.LogbookEntry) error {
	return r.s.update(func(st *memoryState) error {
		if _, ok := st.attachments[entry.Attachment]; !ok {
			return restricted("logbook_attachment_fkey")
		}
		entry.ID = st.nextID("logbook")
		st.logbook[entry.ID] = *entry
		return nil
	})
}

func (r *logbookRepo) Update(ctx context.Context, entry *models.LogbookEntry) error {
	return r.s.update(func(st *memoryState) error {
		current, ok := st.logbook[entry.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		current.LogDate = entry.LogDate
		current.Log = entry.Log
		st.logbook[entry.ID] = current
		return nil
	})
}

func (r *logbookRepo) Delete(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := r.s.update(func(st *memoryState) error {
		if _, ok := st.logbook[id]; ok {
			delete(st.logbook, id)
			affected = 1
		}
		return nil
	})
	return affected, err
}
