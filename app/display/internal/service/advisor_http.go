package service

import (
	"context"
	"strconv"

	"github.com/go-kratos/kratos/v2/transport/http"
)

// RegisterAdvisorHTTPServer 注册顾问服务的 HTTP 路由
func RegisterAdvisorHTTPServer(s *http.Server, srv *AdvisorService) {
	r := s.Route("/api")
	r.POST("/research", researchHandler(srv))
	r.POST("/chat", chatHandler(srv))
	r.GET("/market-status", marketStatusHandler(srv))
	r.GET("/reports", listRunsHandler(srv))
	r.GET("/reports/{id}", getRunHandler(srv))
}

func researchHandler(srv *AdvisorService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in ResearchReq
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.Research(ctx, req.(*ResearchReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*Reply)
		return ctx.JSON(reply.Code, reply.Body)
	}
}

func chatHandler(srv *AdvisorService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in ChatReq
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.Chat(ctx, req.(*ChatReq))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*Reply)
		return ctx.JSON(reply.Code, reply.Body)
	}
}

func marketStatusHandler(srv *AdvisorService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		h := ctx.Middleware(func(ctx context.Context, _ any) (any, error) {
			return srv.MarketStatus(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		reply := out.(*Reply)
		return ctx.JSON(reply.Code, reply.Body)
	}
}

func listRunsHandler(srv *AdvisorService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		q := ctx.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		pageSize, _ := strconv.Atoi(q.Get("pageSize"))
		inputType := q.Get("type")

		h := ctx.Middleware(func(ctx context.Context, _ any) (any, error) {
			return srv.ListRuns(ctx, inputType, page, pageSize)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func getRunHandler(srv *AdvisorService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		id := ctx.Vars().Get("id")
		h := ctx.Middleware(func(ctx context.Context, _ any) (any, error) {
			return srv.GetRun(ctx, id)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
