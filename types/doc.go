// Copyright 2026 Dataset Generator Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package types 定义数据集生成器的共享数据模型。

包含生成任务（GenerationTask）、批次结果（BatchResult）、数据集条目
（DatasetEntry）、进度更新（ProgressUpdate）以及统一的结构化错误类型。
引擎（generator 包）、后端（providers 包）与导出层（dataset 包）均
依赖本包，本包不依赖项目内其他包。
*/
package types
