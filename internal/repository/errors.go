package repository

import "errors"

// 見つかりませんを統一
var ErrNotFound = errors.New("not found")

// 条件付き更新で現在の状態が一致しなかった（同時実行で先を越された）
var ErrConflict = errors.New("conflict")
