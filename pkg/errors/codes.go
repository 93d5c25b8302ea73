package errors

import "google.golang.org/grpc/codes"

// knowledge-hub 服务代码: 21 (业务服务范围 20-79)
// 错误码格式: AABBCCC
// - AA: 21 (知识库服务)
// - BB: 类别代码
// - CCC: 序号

const (
	// ServiceHub is for the knowledge-hub service.
	ServiceHub = 21
)

var (
	// 通用错误
	ErrInternal = Register(New(MakeCode(ServiceHub, CategoryInternal, 1), 500, codes.Internal, "Internal server error", "内部服务错误"))

	// 请求参数错误 (类别 01)
	ErrInvalidRequest  = Register(New(MakeCode(ServiceHub, CategoryRequest, 1), 400, codes.InvalidArgument, "Invalid request parameters", "请求参数无效"))
	ErrInvalidFileType = Register(New(MakeCode(ServiceHub, CategoryRequest, 2), 400, codes.InvalidArgument, "Unsupported file type", "不支持的文件类型"))
	ErrFileTooLarge    = Register(New(MakeCode(ServiceHub, CategoryRequest, 3), 400, codes.InvalidArgument, "File exceeds maximum size", "文件超出大小限制"))

	// 认证与授权 (类别 02/03)
	ErrUnauthorized = Register(New(MakeCode(ServiceHub, CategoryAuth, 1), 401, codes.Unauthenticated, "Authentication required", "需要身份认证"))
	ErrForbidden    = Register(New(MakeCode(ServiceHub, CategoryPermission, 1), 403, codes.PermissionDenied, "Permission denied", "权限不足"))

	// 资源错误 (类别 04)
	ErrDocumentNotFound = Register(New(MakeCode(ServiceHub, CategoryResource, 1), 404, codes.NotFound, "Document not found", "文档不存在"))
	ErrNoResults        = Register(New(MakeCode(ServiceHub, CategoryResource, 2), 404, codes.NotFound, "No relevant content found", "未找到相关内容"))

	// 摄取管线错误 (类别 07 - Internal)
	ErrExtractionFailed = Register(New(MakeCode(ServiceHub, CategoryInternal, 2), 500, codes.Internal, "Text extraction failed", "文本提取失败"))
	ErrEmbeddingFailed  = Register(New(MakeCode(ServiceHub, CategoryInternal, 3), 500, codes.Internal, "Embedding generation failed", "向量生成失败"))
	ErrLLMFailed        = Register(New(MakeCode(ServiceHub, CategoryInternal, 4), 500, codes.Internal, "Answer generation failed", "答案生成失败"))
	ErrVectorDimension  = Register(New(MakeCode(ServiceHub, CategoryInternal, 5), 500, codes.Internal, "Embedding dimension mismatch", "向量维度不匹配"))

	// 基础设施错误 (类别 08/10)
	ErrDatabase = Register(New(MakeCode(ServiceHub, CategoryDatabase, 1), 500, codes.Internal, "Database operation failed", "数据库操作失败"))
	ErrStorage  = Register(New(MakeCode(ServiceHub, CategoryNetwork, 1), 500, codes.Internal, "Object storage operation failed", "对象存储操作失败"))
)
