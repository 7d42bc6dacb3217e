package consts

const (
	TaskStatusKey     = "task:status:"
	TokenBlacklistKey = "token:blacklist:"
	MediaViewKey      = "media:view:"
	MediaViewDirtyKey = "media:view:dirty"
)

const (
	ViewFlushLock = "lock:media:view:flush"
)
