// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// optunaの警告・例外システムにインスパイアされており、構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("tuning-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// これにより、FrozenOverrideWarningなどのカスタム警告の処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	// zerologが設定されている場合は優先的に使用
	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	// フォールバック: 従来のハンドラ
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	チューニング特有の警告型
//
// ===========================================================================

// MissingFrozenParamsWarning は設定ファイルにOPTUNA_FROZEN_PARAMSが存在しない場合の警告です。
// 凍結パラメータは必須ではないため、エラーではなく警告として扱います。
type MissingFrozenParamsWarning struct {
	Path string
}

func (w *MissingFrozenParamsWarning) Error() string {
	return fmt.Sprintf("could not find the entry named 'OPTUNA_FROZEN_PARAMS' in the config file %q. No frozen parameters will be merged", w.Path)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *MissingFrozenParamsWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("config_path", w.Path).
		Str("type", "MissingFrozenParamsWarning")
}

// NewMissingFrozenParamsWarning は新しいMissingFrozenParamsWarningを作成します。
func NewMissingFrozenParamsWarning(path string) *MissingFrozenParamsWarning {
	return &MissingFrozenParamsWarning{Path: path}
}

// FrozenOverrideWarning は凍結パラメータがサンプリング対象のパラメータと同名の場合の警告です。
// この場合、凍結値がサンプリング値を上書きします。
type FrozenOverrideWarning struct {
	Param string
}

func (w *FrozenOverrideWarning) Error() string {
	return fmt.Sprintf("frozen parameter %q shadows a sampled parameter of the same name. The frozen value overrides the suggested value", w.Param)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *FrozenOverrideWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("param", w.Param).
		Str("type", "FrozenOverrideWarning")
}

// NewFrozenOverrideWarning は新しいFrozenOverrideWarningを作成します。
func NewFrozenOverrideWarning(param string) *FrozenOverrideWarning {
	return &FrozenOverrideWarning{Param: param}
}

// SkippedTrialWarning はトライアルが割り込みによりスキップされた場合の警告です。
type SkippedTrialWarning struct {
	TrialNumber int
}

func (w *SkippedTrialWarning) Error() string {
	return fmt.Sprintf("trial %d was skipped by interrupt and recorded as pruned. The study continues", w.TrialNumber)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *SkippedTrialWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("trial_number", w.TrialNumber).
		Str("type", "SkippedTrialWarning")
}

// NewSkippedTrialWarning は新しいSkippedTrialWarningを作成します。
func NewSkippedTrialWarning(trialNumber int) *SkippedTrialWarning {
	return &SkippedTrialWarning{TrialNumber: trialNumber}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// ConfigError は設定ファイルの読み込み・検証に失敗した場合のエラーです。
// 必須キーの欠落や4要素タプルの形式違反などを示します。
type ConfigError struct {
	Path   string
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("tuning: invalid config %q: key %q: %s", e.Path, e.Key, e.Reason)
	}
	return fmt.Sprintf("tuning: invalid config %q: %s", e.Path, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("config_path", e.Path).
		Str("key", e.Key).
		Str("reason", e.Reason).
		Str("type", "ConfigError")
}

// NewConfigError は新しいConfigErrorを作成し、スタックトレースを付与します。
func NewConfigError(path, key, reason string) error {
	err := &ConfigError{Path: path, Key: key, Reason: reason}
	return errors.WithStack(err)
}

// SuggestionError は設定上のsuggestion種別をライブラリ呼び出しへ変換できない場合のエラーです。
// 未知の種別、引数の数・型の不一致などを示します。
type SuggestionError struct {
	Param  string
	Kind   string
	Reason string
}

func (e *SuggestionError) Error() string {
	return fmt.Sprintf("tuning: parameter %q: suggestion kind %q: %s", e.Param, e.Kind, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SuggestionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param", e.Param).
		Str("kind", e.Kind).
		Str("reason", e.Reason).
		Str("type", "SuggestionError")
}

// NewSuggestionError は新しいSuggestionErrorを作成し、スタックトレースを付与します。
func NewSuggestionError(param, kind, reason string) error {
	err := &SuggestionError{Param: param, Kind: kind, Reason: reason}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tuning: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// EmptyStudyError は解析対象となる完了トライアルが1件も存在しない場合のエラーです。
// 全トライアルがスキップ（pruned）された場合などに発生します。
type EmptyStudyError struct {
	Total  int
	Pruned int
}

func (e *EmptyStudyError) Error() string {
	return fmt.Sprintf("tuning: no completed trials to analyze (%d total, %d pruned)", e.Total, e.Pruned)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *EmptyStudyError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("trials_total", e.Total).
		Int("trials_pruned", e.Pruned).
		Str("type", "EmptyStudyError")
}

// NewEmptyStudyError は新しいEmptyStudyErrorを作成し、スタックトレースを付与します。
func NewEmptyStudyError(total, pruned int) error {
	err := &EmptyStudyError{Total: total, Pruned: pruned}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrNilObjective はobjectiveコールバックがnilの場合のエラーです。
	ErrNilObjective = New("objective callback must not be nil")

	// ErrEmptyMetrics はmetrics_to_optimizeが空の場合のエラーです。
	ErrEmptyMetrics = New("metrics_to_optimize must not be empty")
)
