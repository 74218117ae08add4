package installments

import "context"

type fakeLocker struct {
	held map[string]bool
	err  error
}

func (l *fakeLocker) TryLock(_ context.Context, key string) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() { delete(l.held, key) }, true, nil
}

type scheduledDelete struct {
	UserID, EventID, InstallmentID, Link string
}

type fakeRetries struct {
	jobs []scheduledDelete
}

func (r *fakeRetries) ScheduleCalendarDelete(_ context.Context, userID, eventID, installmentID, link string) error {
	r.jobs = append(r.jobs, scheduledDelete{userID, eventID, installmentID, link})
	return nil
}
