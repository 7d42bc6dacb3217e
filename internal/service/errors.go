package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid         = errors.New("参数错误")
	ErrUserNotFound         = errors.New("用户不存在")
	ErrUserBan              = errors.New("用户已被封禁")
	ErrUserUsernameExist    = errors.New("用户名已存在")
	ErrPasswordIncorrect    = errors.New("密码错误")
	ErrInsufficientCredits  = errors.New("积分余额不足")
	ErrMediaNotFound        = errors.New("媒体不存在")
	ErrMediaNotOwned        = errors.New("无权操作该媒体")
	ErrJobNotFound          = errors.New("生成任务不存在")
	ErrTaskNotFound         = errors.New("任务不存在")
	ErrCommentNotFound      = errors.New("评论不存在")
	ErrFileNotSupported     = errors.New("不支持的文件类型")
	ErrInputImageRequired   = errors.New("图生图需要提供输入图片")
	ErrInputImageInvalid    = errors.New("输入图片解码失败")
	UnauthorizedError       = errors.New("权限不足")
	UnExpectedError         = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:        BadRequest,
	ErrUserNotFound:        NotFound,
	ErrUserBan:             Unauthorized,
	ErrUserUsernameExist:   BadRequest,
	ErrPasswordIncorrect:   Unauthorized,
	ErrInsufficientCredits: BadRequest,
	ErrMediaNotFound:       NotFound,
	ErrMediaNotOwned:       Unauthorized,
	ErrJobNotFound:         NotFound,
	ErrTaskNotFound:        NotFound,
	ErrCommentNotFound:     NotFound,
	ErrFileNotSupported:    BadRequest,
	ErrInputImageRequired:  BadRequest,
	ErrInputImageInvalid:   BadRequest,
	UnauthorizedError:      Unauthorized,
	UnExpectedError:        InternalServerError,
}
