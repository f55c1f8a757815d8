package global

import (
	"tpos_commerce/config"
	"tpos_commerce/core/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_Data_CollectionName chứa tên các collection trong MongoDB
type MongoDB_Data_CollectionName struct {
	AssignmentStates string // Tên collection cho trạng thái gán sản phẩm (một document/blob cho mỗi store key)
	RemovalStates    string // Tên collection cho trạng thái gỡ sản phẩm (namespace riêng, không dùng chung với assignment)
	BatchHistory     string // Tên collection cho lịch sử batch upload/gỡ (append-only, phân biệt bằng field kind)
	OrderCache       string // Tên collection cho cache danh sách đơn hàng theo STT
}

// Các biến toàn cục
var Validate *validator.Validate               // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client              // Phiên kết nối tới MongoDB
var ServerConfig *config.Configuration         // Cấu hình của server
var MongoDB_ColNames = MongoDB_Data_CollectionName{
	AssignmentStates: "assignment_states",
	RemovalStates:    "removal_states",
	BatchHistory:     "batch_history",
	OrderCache:       "order_cache",
}

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()      // Registry chứa các databases
