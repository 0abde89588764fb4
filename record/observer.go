package record

// Observer receives the lifecycle of a capture attempt. Every method runs on
// the capture goroutine; OnRecording additionally runs with the recorder lock
// held, so implementations must hand off anything slow.
type Observer interface {
	OnRecordingStart()
	// OnRecording delivers size bytes at the front of data. data is reused
	// for the next read: copy what must outlive the call.
	OnRecording(data []byte, size int)
	// OnRecordCreateError reports that the source could not be created or
	// started. No other callback follows for that attempt.
	OnRecordCreateError()
	// OnRecordingFailed reports that Start could not launch an attempt at all.
	OnRecordingFailed()
	// OnRecordingEnd is the first step of teardown for an attempt that
	// started recording.
	OnRecordingEnd()
}

// Funcs adapts optional functions to Observer. Nil fields are skipped.
type Funcs struct {
	Start       func()
	Data        func(data []byte, size int)
	CreateError func()
	Failed      func()
	End         func()
}

func (f Funcs) OnRecordingStart() {
	if f.Start != nil {
		f.Start()
	}
}

func (f Funcs) OnRecording(data []byte, size int) {
	if f.Data != nil {
		f.Data(data, size)
	}
}

func (f Funcs) OnRecordCreateError() {
	if f.CreateError != nil {
		f.CreateError()
	}
}

func (f Funcs) OnRecordingFailed() {
	if f.Failed != nil {
		f.Failed()
	}
}

func (f Funcs) OnRecordingEnd() {
	if f.End != nil {
		f.End()
	}
}
