package service

import (
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/config"
	"github.com/kkhwan1/Taeyoung-251030-FI-sub010/internal/repository"
	"github.com/redis/go-redis/v9"
)

// Services 서비스 집합
type Services struct {
	Item *ItemService
	BOM  *BOMService
}

// NewServices 서비스 집합 생성
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *Services {
	return &Services{
		Item: NewItemService(repos.Item, repos.Price),
		BOM:  NewBOMService(repos.BOMEdge, repos.Item, repos.Price, rdb, cfg.BOM),
	}
}

// ItemService 품목 서비스
type ItemService struct {
	itemRepo  *repository.ItemRepository
	priceRepo *repository.PriceRepository
}

// NewItemService 품목 서비스 생성
func NewItemService(itemRepo *repository.ItemRepository, priceRepo *repository.PriceRepository) *ItemService {
	return &ItemService{itemRepo: itemRepo, priceRepo: priceRepo}
}

// BOMService BOM 그래프 엔진.
// 간선 배치 검증/커밋, 사이클 차단, 원가 전개, 역전개(where-used)를 담당한다.
type BOMService struct {
	edgeRepo  *repository.BOMEdgeRepository
	itemRepo  *repository.ItemRepository
	priceRepo *repository.PriceRepository
	rdb       *redis.Client
	cfg       config.BOMConfig
}

// NewBOMService BOM 서비스 생성
func NewBOMService(
	edgeRepo *repository.BOMEdgeRepository,
	itemRepo *repository.ItemRepository,
	priceRepo *repository.PriceRepository,
	rdb *redis.Client,
	cfg config.BOMConfig,
) *BOMService {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 32
	}
	if cfg.LaborRate == 0 {
		cfg.LaborRate = 0.10
	}
	if cfg.OverheadRate == 0 {
		cfg.OverheadRate = 0.05
	}
	return &BOMService{
		edgeRepo:  edgeRepo,
		itemRepo:  itemRepo,
		priceRepo: priceRepo,
		rdb:       rdb,
		cfg:       cfg,
	}
}
