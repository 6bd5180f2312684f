// Package seed 从 YAML 夹具写入初始数据（管理员、成员、Boss、战利品）
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/internal/repository"
	"guild-ledger/backend/internal/service"
)

//go:embed fixtures/default.yaml
var defaultFixture []byte

// Fixture 夹具文件结构
type Fixture struct {
	Admins  []AdminFixture      `yaml:"admins"`
	Members []MemberFixture     `yaml:"members"`
	Bosses  []BossFixture       `yaml:"bosses"`
	Loot    []dto.ImportLootRow `yaml:"loot"`
}

// AdminFixture 明文密码仅存在于夹具中，入库前做 bcrypt
type AdminFixture struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MemberFixture 成员及其初始角色
type MemberFixture struct {
	Name      string     `yaml:"name"`
	Role      string     `yaml:"role"`
	StartDate *time.Time `yaml:"start_date"`
}

// BossFixture Boss 定义
type BossFixture struct {
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	RespawnMinutes int    `yaml:"respawn_minutes"`
}

// Result 本次写入的数量，已存在的记录不计入
type Result struct {
	Admins  int
	Members int
	Bosses  int
	Loot    int
}

// Load 读取夹具；path 为空时使用内置默认夹具
func Load(path string) (*Fixture, error) {
	data := defaultFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取夹具文件失败: %w", err)
		}
		data = b
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析夹具失败: %w", err)
	}
	return &f, nil
}

// Seeder 通过业务服务写入夹具，保证成员初始有效期等规则与 API 一致
type Seeder struct {
	repo   *repository.Repository
	svc    *service.Service
	logger *zap.Logger
	cost   int
}

// NewSeeder 创建 Seeder
func NewSeeder(repo *repository.Repository, svc *service.Service, logger *zap.Logger) *Seeder {
	return &Seeder{repo: repo, svc: svc, logger: logger, cost: bcrypt.DefaultCost}
}

// Run 写入夹具，可重复执行：同名记录跳过，库中已有战利品时不再导入
func (s *Seeder) Run(ctx context.Context, f *Fixture) (*Result, error) {
	res := &Result{}

	for _, a := range f.Admins {
		created, err := s.seedAdmin(ctx, a)
		if err != nil {
			return nil, err
		}
		if created {
			res.Admins++
		}
	}

	for _, m := range f.Members {
		_, err := s.svc.Member.Create(ctx, &dto.CreateMemberRequest{
			Name:      m.Name,
			Role:      m.Role,
			StartDate: m.StartDate,
			Reason:    "Seed",
		})
		if errors.Is(err, service.ErrDuplicateName) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("写入成员 %s 失败: %w", m.Name, err)
		}
		res.Members++
	}

	for _, b := range f.Bosses {
		_, err := s.svc.Boss.Create(ctx, &dto.CreateBossRequest{
			Name:           b.Name,
			Type:           b.Type,
			RespawnMinutes: b.RespawnMinutes,
		})
		if errors.Is(err, service.ErrDuplicateName) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("写入 Boss %s 失败: %w", b.Name, err)
		}
		res.Bosses++
	}

	if len(f.Loot) > 0 {
		_, total, err := s.repo.Loot.List(ctx, repository.LootFilter{Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("查询战利品失败: %w", err)
		}
		if total == 0 {
			imported, err := s.svc.Loot.Import(ctx, &dto.ImportLootRequest{Rows: f.Loot})
			if err != nil {
				return nil, fmt.Errorf("导入战利品失败: %w", err)
			}
			for _, e := range imported.Errors {
				s.logger.Warn("夹具战利品行导入失败", zap.Int("row", e.Row), zap.String("message", e.Message))
			}
			res.Loot = imported.Created
		}
	}

	s.logger.Info("种子数据写入完成",
		zap.Int("admins", res.Admins),
		zap.Int("members", res.Members),
		zap.Int("bosses", res.Bosses),
		zap.Int("loot", res.Loot),
	)
	return res, nil
}

func (s *Seeder) seedAdmin(ctx context.Context, a AdminFixture) (bool, error) {
	_, err := s.repo.Admin.GetByUsername(ctx, a.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("查询管理员失败: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), s.cost)
	if err != nil {
		return false, fmt.Errorf("密码加密失败: %w", err)
	}
	admin := &model.Admin{Username: a.Username, PasswordHash: string(hash)}
	if err := s.repo.Admin.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("写入管理员失败: %w", err)
	}
	return true, nil
}
