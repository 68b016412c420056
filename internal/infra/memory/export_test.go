package memory

// CountAnswers returns how many answers exist for a user/question pair.
func (s *Store) CountAnswers(userID, questionID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.st.answers {
		if a.UserID == userID && a.QuestionID == questionID {
			n++
		}
	}
	return n
}

// Held reports whether the pair is currently locked.
func (l *SubmissionLock) Held(userID, questionID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[pairKey{userID: userID, questionID: questionID}]
	return ok
}
