package memstore

import (
	"context"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/repositories"
)

type studentRepo struct{ s *Store }

func (r *studentRepo) List(ctx context.Context, active bool) ([]*models.Student, error) {
	out := []*models.Student{}
	err := r.s.view(func(st *memoryState) error {
		for _, id := range sortedIDs(st.students) {
			if v := st.students[id]; v.Active == active {
				out = append(out, &v)
			}
		}
		return nil
	})
	return out, err
}

func (r *studentRepo) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	var out *models.Student
	err := r.s.view(func(st *memoryState) error {
		v, ok := st.students[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &v
		return nil
	})
	return out, err
}

func (r *studentRepo) match(pred func(models.Student) bool) (bool, error) {
	found := false
	err := r.s.view(func(st *memoryState) error {
		for _, v := range st.students {
			if pred(v) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *studentRepo) RegistrationNoExists(ctx context.Context, registrationNo string) (bool, error) {
	return r.match(func(v models.Student) bool { return v.RegistrationNo == registrationNo })
}

func (r *studentRepo) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.match(func(v models.Student) bool { return v.Phone == phone })
}

func (r *studentRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.match(func(v models.Student) bool { return v.Email == email })
}

func checkStudentUnique(st *memoryState, s *models.Student) error {
	for id, v := range st.students {
		if id == s.ID {
			continue
		}
		switch {
		case v.RegistrationNo == s.RegistrationNo:
			return duplicate("students_registration_no_key")
		case v.Phone == s.Phone:
			return duplicate("students_phone_key")
		case v.Email == s.Email:
			return duplicate("students_email_key")
		}
	}
	return nil
}

func (r *studentRepo) Create(ctx context.Context, student *models.Student) error {
	return r.s.update(func(st *memoryState) error {
		if err := r.s.takeInjected(EntityStudent, student.RegistrationNo); err != nil {
			return err
		}
		if err := checkStudentUnique(st, student); err != nil {
			return err
		}
		student.ID = st.nextID(EntityStudent)
		st.students[student.ID] = *student
		return nil
	})
}

func (r *studentRepo) Update(ctx context.Context, student *models.Student) error {
	return r.s.update(func(st *memoryState) error {
		current, ok := st.students[student.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		if err := checkStudentUnique(st, student); err != nil {
			return err
		}
		student.DateCreated = current.DateCreated
		st.students[student.ID] = *student
		return nil
	})
}

func (r *studentRepo) Delete(ctx context.Context, ids []int64) (int64, error) {
	var affected int64
	err := r.s.update(func(st *memoryState) error {
		set := idSet(ids)
		for _, a := range st.attachments {
			if _, ok := set[a.Student]; ok {
				return restricted("attachments_student_fkey")
			}
		}
		for id := range set {
			if _, ok := st.students[id]; ok {
				delete(st.students, id)
				affected++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

type supervisorRepo struct{ s *Store }

func (r *supervisorRepo) List(ctx context.Context, active bool) ([]*models.Supervisor, error) {
	out := []*models.Supervisor{}
	err := r.s.view(func(st *memoryState) error {
		for _, id := range sortedIDs(st.supervisors) {
			if v := st.supervisors[id]; v.Active == active {
				out = append(out, &v)
			}
		}
		return nil
	})
	return out, err
}

func (r *supervisorRepo) GetByID(ctx context.Context, id int64) (*models.Supervisor, error) {
	var out *models.Supervisor
	err := r.s.view(func(st *memoryState) error {
		v, ok := st.supervisors[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &v
		return nil
	})
	return out, err
}

func (r *supervisorRepo) match(pred func(models.Supervisor) bool) (bool, error) {
	found := false
	err := r.s.view(func(st *memoryState) error {
		for _, v := range st.supervisors {
			if pred(v) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *supervisorRepo) StaffNoExists(ctx context.Context, staffNo string) (bool, error) {
	return r.match(func(v models.Supervisor) bool { return v.StaffNo == staffNo })
}

func (r *supervisorRepo) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.match(func(v models.Supervisor) bool { return v.Phone == phone })
}

func (r *supervisorRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.match(func(v models.Supervisor) bool { return v.Email == email })
}

func checkSupervisorUnique(st *memoryState, s *models.Supervisor) error {
	for id, v := range st.supervisors {
		if id == s.ID {
			continue
		}
		switch {
		case v.StaffNo == s.StaffNo:
			return duplicate("supervisors_staff_no_key")
		case v.Phone == s.Phone:
			return duplicate("supervisors_phone_key")
		case v.Email == s.Email:
			return duplicate("supervisors_email_key")
		}
	}
	return nil
}

func (r *supervisorRepo) Create(ctx context.Context, supervisor *models.Supervisor) error {
	return r.s.update(func(st *memoryState) error {
		if err := r.s.takeInjected(EntitySupervisor, supervisor.StaffNo); err != nil {
			return err
		}
		if err := checkSupervisorUnique(st, supervisor); err != nil {
			return err
		}
		supervisor.ID = st.nextID(EntitySupervisor)
		st.supervisors[supervisor.ID] = *supervisor
		return nil
	})
}

func (r *supervisorRepo) Update(ctx context.Context, supervisor *models.Supervisor) error {
	return r.s.update(func(st *memoryState) error {
		current, ok := st.supervisors[supervisor.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		if err := checkSupervisorUnique(st, supervisor); err != nil {
			return err
		}
		supervisor.DateCreated = current.DateCreated
		st.supervisors[supervisor.ID] = *supervisor
		return nil
	})
}

func (r *supervisorRepo) Delete(ctx context.Context, ids []int64) (int64, error) {
	var affected int64
	err := r.s.update(func(st *memoryState) error {
		set := idSet(ids)
		for _, a := range st.attachments {
			if a.Supervisor == nil {
				continue
			}
			if _, ok := set[*a.Supervisor]; ok {
				return restricted("attachments_supervisor_fkey")
			}
		}
		for id := range set {
			if _, ok := st.supervisors[id]; ok {
				delete(st.supervisors, id)
				affected++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

type userRepo struct{ s *Store }

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var out *models.User
	err := r.s.view(func(st *memoryState) error {
		for _, v := range st.users {
			if v.Username == username {
				u := v
				out = &u
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.s.update(func(st *memoryState) error {
		if err := r.s.takeInjected(EntityUser, user.Username); err != nil {
			return err
		}
		for _, v := range st.users {
			if v.Username == user.Username {
				return duplicate("users_username_key")
			}
		}
		user.ID = st.nextID(EntityUser)
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.s.update(func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		u.Password = passwordHash
		u.Reset = false
		st.users[id] = u
		return nil
	})
}

func (r *userRepo) UpdateUsername(ctx context.Context, credentialType models.CredentialType, typeID int64, username string) error {
	return r.s.update(func(st *memoryState) error {
		var target int64
		for id, u := range st.users {
			if u.Type == credentialType && u.TypeID == typeID {
				target = id
			}
		}
		if target == 0 {
			return nil
		}
		for id, u := range st.users {
			if id != target && u.Username == username {
				return duplicate("users_username_key")
			}
		}
		u := st.users[target]
		u.Username = username
		st.users[target] = u
		return nil
	})
}

func (r *userRepo) DeleteByType(ctx context.Context, credentialType models.CredentialType, typeIDs []int64) (int64, error) {
	var affected int64
	err := r.s.update(func(st *memoryState) error {
		set := idSet(typeIDs)
		for id, u := range st.users {
			if u.Type != credentialType {
				continue
			}
			if _, ok := set[u.TypeID]; ok {
				delete(st.users, id)
				affected++
			}
		}
		return nil
	})
	return affected, err
}
