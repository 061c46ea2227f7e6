package recorder

// Control is a lightweight, non-owning handle to a running session. It
// can request state transitions from code that must not own the session
// lifetime (a UI layer, a keybinding handler). A Control never extends
// the session's life: once the owner calls Close, every method fails
// with ErrClosed.
type Control struct {
	r *Recorder
}

// Control returns a handle to the session.
func (r *Recorder) Control() Control {
	return Control{r: r}
}

// Live reports whether the underlying session is still open.
func (c Control) Live() bool {
	return c.r != nil && !c.r.closed.Load()
}

// Play requests the recording transition. See Recorder.Play.
func (c Control) Play() error {
	if !c.Live() {
		return ErrClosed
	}
	return c.r.Play()
}

// Stop requests the stopping transition. See Recorder.Stop.
func (c Control) Stop() error {
	if !c.Live() {
		return ErrClosed
	}
	return c.r.Stop()
}
