package domain

// BatchResult 批量操作结果，每个ID只出现在成功或失败中的一处
type BatchResult struct {
	SuccessCount int
	FailedCount  int
	SucceededIDs []string
	FailedIDs    []string
	Failures     map[string]error
}

// NewBatchResult 创建空的批量结果
func NewBatchResult() *BatchResult {
	return &BatchResult{
		SucceededIDs: []string{},
		FailedIDs:    []string{},
		Failures:     make(map[string]error),
	}
}

// Succeed 记录成功
func (r *BatchResult) Succeed(id string) {
	r.SuccessCount++
	r.SucceededIDs = append(r.SucceededIDs, id)
}

// Fail 记录失败及原因
func (r *BatchResult) Fail(id string, err error) {
	r.FailedCount++
	r.FailedIDs = append(r.FailedIDs, id)
	r.Failures[id] = err
}

// Total 处理的ID总数
func (r *BatchResult) Total() int {
	return r.SuccessCount + r.FailedCount
}

// UniqueIDs 去除重复ID，保留首次出现的顺序
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
