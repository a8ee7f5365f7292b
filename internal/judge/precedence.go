package judge

import "github.com/codearena/judgecore/types"

// reduceResult folds per-case results (cases[1:]) into the Job's
// overall result: the first non-Accepted outcome in case order wins,
// with no cross-category ranking; Accepted if every case is Accepted.
// Mirrors the original's job_result sentinel (`update_result!`), which
// only ever latches the first case result that isn't Accepted.
func reduceResult(cases []types.CaseResult) types.ResultKind {
	for _, c := range cases {
		if c.Result != types.ResultAccepted {
			return c.Result
		}
	}
	return types.ResultAccepted
}
