package store

import (
	"context"
	"sync"

	"github.com/2beens/gymscore/internal/gymscore/records"
)

const (
	KeyFrequency = "frequency"
	KeyScore     = "score"
	KeyProfile   = "profile"
)

func KeyExercise(e records.Exercise) string {
	return "exercise/" + string(e)
}

func KeyPhysique(m records.MuscleGroup) string {
	return "physique/" + string(m)
}

type exerciseKey struct {
	userID   string
	exercise records.Exercise
}

type physiqueKey struct {
	userID      string
	muscleGroup records.MuscleGroup
}

// MemoryStore keeps records in maps. Write failures can be injected per
// category key (see KeyExercise, KeyPhysique, KeyFrequency, KeyScore).
type MemoryStore struct {
	mutex  sync.Mutex
	lastID int

	exercises   map[exerciseKey]records.ExerciseRecord
	physique    map[physiqueKey]records.PhysiqueRating
	frequencies map[string]records.FrequencyRecord
	scores      map[string]records.ScoreRecord
	profiles    map[string]records.ProfileSummary

	writeErrs map[string]error
	readErrs  map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		exercises:   make(map[exerciseKey]records.ExerciseRecord),
		physique:    make(map[physiqueKey]records.PhysiqueRating),
		frequencies: make(map[string]records.FrequencyRecord),
		scores:      make(map[string]records.ScoreRecord),
		profiles:    make(map[string]records.ProfileSummary),
		writeErrs:   make(map[string]error),
		readErrs:    make(map[string]error),
	}
}

// FailWrites makes every upsert for key return err. A nil err clears it.
func (s *MemoryStore) FailWrites(key string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err == nil {
		delete(s.writeErrs, key)
		return
	}
	s.writeErrs[key] = err
}

// FailReads makes every find for key return err. A nil err clears it.
func (s *MemoryStore) FailReads(key string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err == nil {
		delete(s.readErrs, key)
		return
	}
	s.readErrs[key] = err
}

func (s *MemoryStore) nextID() int {
	s.lastID++
	return s.lastID
}

func (s *MemoryStore) FindExercise(_ context.Context, userID string, exercise records.Exercise) (*records.ExerciseRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.readErrs[KeyExercise(exercise)]; err != nil {
		return nil, err
	}

	rec, ok := s.exercises[exerciseKey{userID, exercise}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) UpsertExercise(_ context.Context, rec *records.ExerciseRecord) error {
	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.writeErrs[KeyExercise(rec.Exercise)]; err != nil {
		return err
	}

	key := exerciseKey{rec.UserID, rec.Exercise}
	if existing, ok := s.exercises[key]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = s.nextID()
	}
	s.exercises[key] = *rec

	return nil
}

func (s *MemoryStore) FindPhysique(_ context.Context, userID string, muscleGroup records.MuscleGroup) (*records.PhysiqueRating, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.readErrs[KeyPhysique(muscleGroup)]; err != nil {
		return nil, err
	}

	rec, ok := s.physique[physiqueKey{userID, muscleGroup}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) UpsertPhysique(_ context.Context, rec *records.PhysiqueRating) error {
	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.writeErrs[KeyPhysique(rec.MuscleGroup)]; err != nil {
		return err
	}

	key := physiqueKey{rec.UserID, rec.MuscleGroup}
	if existing, ok := s.physique[key]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = s.nextID()
	}
	s.physique[key] = *rec

	return nil
}

func (s *MemoryStore) FindFrequency(_ context.Context, userID string) (*records.FrequencyRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.readErrs[KeyFrequency]; err != nil {
		return nil, err
	}

	rec, ok := s.frequencies[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) UpsertFrequency(_ context.Context, rec *records.FrequencyRecord) error {
	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.writeErrs[KeyFrequency]; err != nil {
		return err
	}

	if existing, ok := s.frequencies[rec.UserID]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = s.nextID()
	}
	s.frequencies[rec.UserID] = *rec

	return nil
}

func (s *MemoryStore) FindScore(_ context.Context, userID string) (*records.ScoreRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.readErrs[KeyScore]; err != nil {
		return nil, err
	}

	rec, ok := s.scores[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) UpsertScore(_ context.Context, rec *records.ScoreRecord) error {
	if err := validateBeforeWrite(rec); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.writeErrs[KeyScore]; err != nil {
		return err
	}

	if existing, ok := s.scores[rec.UserID]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = s.nextID()
	}
	s.scores[rec.UserID] = *rec

	return nil
}

func (s *MemoryStore) FindProfile(_ context.Context, userID string) (*records.ProfileSummary, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.readErrs[KeyProfile]; err != nil {
		return nil, err
	}

	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) InsertProfileIfMissing(_ context.Context, profile records.ProfileSummary) error {
	if err := validateBeforeWrite(profile); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.writeErrs[KeyProfile]; err != nil {
		return err
	}

	if _, ok := s.profiles[profile.UserID]; ok {
		return nil
	}
	if profile.Email != "" {
		for _, p := range s.profiles {
			if p.Email == profile.Email {
				return ErrEmailTaken
			}
		}
	}
	s.profiles[profile.UserID] = profile
	return nil
}
