package reward

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// conditionEngine 档位附加条件（CEL 表达式）的编译与求值
// 可用变量：value 当前指标值，tier 档位，target 达标值，user_id 用户
// 例：value >= target + 2 || user_id % 2 == 0
type conditionEngine struct {
	env      *cel.Env
	programs sync.Map // expr -> cel.Program
}

func newConditionEngine() (*conditionEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("value", cel.IntType),
		cel.Variable("tier", cel.IntType),
		cel.Variable("target", cel.IntType),
		cel.Variable("user_id", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	return &conditionEngine{env: env}, nil
}

// Compile 校验表达式并缓存，结果类型必须为 bool
func (e *conditionEngine) Compile(expr string) (cel.Program, error) {
	if p, ok := e.programs.Load(expr); ok {
		return p.(cel.Program), nil
	}
	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("condition must evaluate to bool, got %s", ast.OutputType())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, err
	}
	e.programs.Store(expr, prg)
	return prg, nil
}

// Eval 空表达式恒为 true
func (e *conditionEngine) Eval(expr string, value int64, tier, target int, userID uint) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := e.Compile(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{
		"value":   value,
		"tier":    int64(tier),
		"target":  int64(target),
		"user_id": int64(userID),
	})
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T", out.Value())
	}
	return b, nil
}
