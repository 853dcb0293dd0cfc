package presenter

import "github.com/s0up4200/tmdbfav/tmdb"

type loopObserver struct {
	loop *Loop
	next tmdb.Observer
}

// OnLoop wraps observer so every callback runs on loop, in call order
func OnLoop(loop *Loop, observer tmdb.Observer) tmdb.Observer {
	if observer == nil {
		observer = tmdb.NopObserver{}
	}
	return &loopObserver{loop: loop, next: observer}
}

func (o *loopObserver) OnWorkflowProgress(state tmdb.AuthState) {
	o.loop.Post(func() { o.next.OnWorkflowProgress(state) })
}

func (o *loopObserver) OnWorkflowFailed(reason string) {
	o.loop.Post(func() { o.next.OnWorkflowFailed(reason) })
}

func (o *loopObserver) OnWorkflowComplete(session tmdb.Session) {
	o.loop.Post(func() { o.next.OnWorkflowComplete(session) })
}

func (o *loopObserver) OnFavoriteStatusKnown(movieID int64, favorite bool) {
	o.loop.Post(func() { o.next.OnFavoriteStatusKnown(movieID, favorite) })
}

func (o *loopObserver) OnFavoriteToggled(movieID int64, favorite bool) {
	o.loop.Post(func() { o.next.OnFavoriteToggled(movieID, favorite) })
}
