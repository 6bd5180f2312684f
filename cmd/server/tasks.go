package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"guild-ledger/backend/internal/seed"
	"guild-ledger/backend/internal/service"
)

// ── 运维子命令 ──

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移后退出",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			a.close()
			return nil
		},
	}
}

func seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "写入种子数据（管理员、成员、Boss、战利品）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			fixture, err := seed.Load(file)
			if err != nil {
				return err
			}
			_, err = seed.NewSeeder(a.repo, a.services(), a.logger).Run(cmd.Context(), fixture)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "夹具 YAML 路径，为空时使用内置夹具")
	return cmd
}

func initRoleHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-role-history",
		Short: "为没有角色历史的成员补建初始有效期",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.services().RoleTimeline.InitializeHistory(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("角色历史初始化完成", zap.Int("initialized", res.Initialized))
			return nil
		},
	}
}

func recalculateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recalculate",
		Short: "按角色时间线重算全部已售物品的工资分配",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.services().Salary.Recalculate(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("工资重算完成",
				zap.Int("items", res.ItemsProcessed),
				zap.Int("salaries", res.SalariesCreated),
				zap.Float64("guild_fund", res.GuildFund),
				zap.Int("items_without_beneficiaries", res.ItemsWithoutBeneficiaries),
			)
			return nil
		},
	}
}

// services 离线命令不需要 JWT、Redis 与事件投递
func (a *app) services() *service.Service {
	return service.NewService(service.Deps{
		Config: a.cfg,
		Repo:   a.repo,
		Logger: a.logger,
	})
}
