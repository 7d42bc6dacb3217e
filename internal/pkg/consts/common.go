package consts

const (
	MimePrefixImage = "image"
	MimePrefixVideo = "video"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

const (
	JobKindTextToImage  = "text_to_image"
	JobKindImageToImage = "image_to_image"
)

const (
	TxTypeGeneration = "generation"
	TxTypePurchase   = "purchase"
	TxTypeGrant      = "grant"
	TxTypeRefund     = "refund"
)

const (
	TaskGenerateMedia = "generate_media"
)

const (
	SeedMin = 1
	SeedMax = 1500000
)
