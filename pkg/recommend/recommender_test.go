package recommend

import (
	"context"
	"errors"
	"testing"

	"ai-docview-be/pkg/detect"
	"ai-docview-be/pkg/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const qaContent = `问题1：什么是缓存？答案1：缓存是一种临时存储。
问题2：缓存有什么作用？答案2：减少重复计算。
问题3：缓存何时失效？答案3：到达过期时间后失效。
问题4：如何清理缓存？答案4：执行清理命令。
问题5：缓存会占用内存吗？答案5：会，需要设置上限。`

const systemContent = `本系统由多个组件构成。整体架构分为接入层、服务层和存储层。
各组件之间的依赖关系如下：网关组件依赖认证组件，认证组件依赖用户服务。
架构中的每个模块都通过接口通信，模块之间的依赖关系保持单向。`

const learningContent = `快速上手指南
1. 安装：下载安装包并执行安装命令
2. 配置：编辑配置文件，填写端口号
3. 运行：在终端中启动程序
4. 使用：打开浏览器访问首页
最后，检查日志确认运行正常。`

func noop(ctx context.Context, in view.Input) (view.ResultData, error) {
	return view.ResultData{}, nil
}

func newRegistry() *view.Registry {
	r := view.NewRegistry(nil)
	r.Register(view.KindQA, view.ProcessorFunc(noop), "interview")
	r.Register(view.KindSystem, view.ProcessorFunc(noop), "architecture")
	r.Register(view.KindLearning, view.ProcessorFunc(noop), "tutorial")
	return r
}

type fakeAI struct {
	rec    *Recommendation
	err    error
	called int
}

func (f *fakeAI) Recommend(ctx context.Context, content string, scores detect.Scores) (*Recommendation, error) {
	f.called++
	return f.rec, f.err
}

func TestRecommend_Scenarios(t *testing.T) {
	r := NewRecommender(detect.NewDetector(nil), newRegistry(), nil, DefaultConfig(), nil)

	tests := []struct {
		name    string
		content string
		want    view.Kind
	}{
		{name: "qa blocks", content: qaContent, want: view.KindQA},
		{name: "architecture prose", content: systemContent, want: view.KindSystem},
		{name: "install guide", content: learningContent, want: view.KindLearning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := r.Recommend(context.Background(), tt.content)
			assert.Equal(t, tt.want, rec.Primary)
			assert.Equal(t, MethodRule, rec.Method)
			assert.Contains(t, rec.Enabled, rec.Primary)
			assert.Len(t, rec.Scores, 3)
		})
	}
}

func TestRecommend_InclusionThreshold(t *testing.T) {
	r := NewRecommender(detect.NewDetector(nil), newRegistry(), nil, DefaultConfig(), nil)
	scores := detect.Scores{view.KindQA: 0.9, view.KindSystem: 0.3, view.KindLearning: 0.29}

	rec := r.FromScores(context.Background(), "", scores)
	assert.Equal(t, view.KindQA, rec.Primary)
	assert.Equal(t, []view.Kind{view.KindQA, view.KindSystem}, rec.Enabled)
	assert.Equal(t, []view.Kind{view.KindSystem}, rec.Secondary())
}

func TestRecommend_TiesFollowRegistryOrder(t *testing.T) {
	r := NewRecommender(detect.NewDetector(nil), newRegistry(), nil, DefaultConfig(), nil)
	scores := detect.Scores{view.KindQA: 0.6, view.KindSystem: 0.6, view.KindLearning: 0.1}

	rec := r.FromScores(context.Background(), "", scores)
	assert.Equal(t, view.KindQA, rec.Primary)
}

func TestRecommend_AllZeroUsesDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultView = view.KindLearning
	r := NewRecommender(detect.NewDetector(nil), newRegistry(), nil, cfg, nil)

	rec := r.Recommend(context.Background(), "")
	assert.Equal(t, view.KindLearning, rec.Primary)
	assert.Equal(t, []view.Kind{view.KindLearning}, rec.Enabled)
}

func TestRecommend_AIConsultedOnlyBelowFloor(t *testing.T) {
	ai := &fakeAI{rec: &Recommendation{Primary: view.KindSystem}}
	r := NewRecommender(detect.NewDetector(nil), newRegistry(), ai, DefaultConfig(), nil)

	strong := detect.Scores{view.KindQA: 0.9, view.KindSystem: 0.1, view.KindLearning: 0.1}
	rec := r.FromScores(context.Background(), "", strong)
	assert.Equal(t, 0, ai.called)
	assert.Equal(t, MethodRule, rec.Method)

	weak := detect.Scores{view.KindQA: 0.4, view.KindSystem: 0.1, view.KindLearning: 0.35}
	rec = r.FromScores(context.Background(), "", weak)
	assert.Equal(t, 1, ai.called)
	assert.Equal(t, MethodAI, rec.Method)
	assert.Equal(t, view.KindSystem, rec.Primary)
	assert.Equal(t, []view.Kind{view.KindSystem}, rec.Enabled)
	assert.Equal(t, weak, rec.Scores)
}

func TestRecommend_AIFailureFallsBackToRule(t *testing.T) {
	weak := detect.Scores{view.KindQA: 0.4, view.KindSystem: 0.1, view.KindLearning: 0.35}

	tests := []struct {
		name string
		ai   *fakeAI
	}{
		{name: "error", ai: &fakeAI{err: errors.New("llm down")}},
		{name: "nil answer", ai: &fakeAI{}},
		{name: "unknown view", ai: &fakeAI{rec: &Recommendation{Primary: "mindmap"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecommender(detect.NewDetector(nil), newRegistry(), tt.ai, DefaultConfig(), nil)
			rec := r.FromScores(context.Background(), "", weak)
			require.Equal(t, 1, tt.ai.called)
			assert.Equal(t, MethodRule, rec.Method)
			assert.Equal(t, view.KindQA, rec.Primary)
			assert.Equal(t, []view.Kind{view.KindQA, view.KindLearning}, rec.Enabled)
		})
	}
}

func TestRecommend_AIEnabledViewsNormalized(t *testing.T) {
	ai := &fakeAI{rec: &Recommendation{
		Primary: view.KindLearning,
		Enabled: []view.Kind{view.KindQA, "mindmap", view.KindQA, view.KindLearning},
	}}
	r := NewRecommender(detect.NewDetector(nil), newRegistry(), ai, DefaultConfig(), nil)

	rec := r.FromScores(context.Background(), "", detect.Scores{view.KindQA: 0.2, view.KindSystem: 0.2, view.KindLearning: 0.2})
	assert.Equal(t, view.KindLearning, rec.Primary)
	assert.Equal(t, []view.Kind{view.KindLearning, view.KindQA}, rec.Enabled)
}
